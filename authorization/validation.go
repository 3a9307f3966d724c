package authorization

import (
	"encoding/json"
	"fmt"
	"reflect"

	"cosmossdk.io/math"
	sdktypes "github.com/cosmos/cosmos-sdk/types"

	"github.com/valence-protocol/valence-go/bank"
	authschema "github.com/valence-protocol/valence-go/cosmwasm-schema/authorization"
	"github.com/valence-protocol/valence-go/runtime"
)

// validateExecutable gate-keeps one attempt to submit a message batch
// against an authorization. Checks run in a fixed order: lifecycle state,
// activation window, expiration, caller permission, then the messages
// themselves. It performs no writes.
func validateExecutable(
	auth authschema.Authorization,
	env runtime.Env,
	keeper bank.Keeper,
	caller string,
	funds sdktypes.Coins,
	messages []authschema.ProcessorMessage,
) error {
	if auth.State != authschema.StateEnabled {
		return ErrNotEnabled
	}
	if !auth.NotBefore.IsNever() && !auth.NotBefore.IsReached(env.Block.Height, env.Block.Time) {
		return ErrNotActiveYet
	}
	if auth.Expiration.IsReached(env.Block.Height, env.Block.Time) {
		return ErrExpired
	}
	if err := validatePermission(auth, env, keeper, caller, funds); err != nil {
		return err
	}
	return validateMessages(auth.Subroutine, messages)
}

func validatePermission(
	auth authschema.Authorization,
	env runtime.Env,
	keeper bank.Keeper,
	caller string,
	funds sdktypes.Coins,
) error {
	permission := auth.Mode.Permissioned
	if permission == nil {
		return nil
	}
	denom := PermissionTokenDenom(env.Contract, auth.Label)
	if permission.WithCallLimit != nil {
		paid, err := bank.MustPay(funds, denom)
		if err != nil || !paid.Equal(math.OneInt()) {
			return ErrRequiresOneToken
		}
		return nil
	}
	if keeper.Balance(caller, denom).LT(math.OneInt()) {
		return ErrNotAllowed
	}
	return nil
}

// validateMessages checks each message against its function positionally;
// order matters, there is no reordering or matching by content.
func validateMessages(subroutine authschema.Subroutine, messages []authschema.ProcessorMessage) error {
	functions := subroutine.Functions()
	if len(messages) != len(functions) {
		return fmt.Errorf("%w: got %d messages for %d functions", ErrInvalidAmount, len(messages), len(functions))
	}
	for i, message := range messages {
		if err := validateMessage(message, functions[i]); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}
	return nil
}

func validateMessage(message authschema.ProcessorMessage, function authschema.Function) error {
	if message.Type() != function.MessageDetails.MessageType {
		return ErrInvalidType
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(message.Payload(), &payload); err != nil {
		return ErrInvalidStructure
	}
	if len(payload) != 1 {
		return ErrInvalidStructure
	}
	name := function.MessageDetails.Message.Name
	if _, ok := payload[name]; !ok {
		return ErrDoesNotMatch
	}

	var tree interface{}
	if err := json.Unmarshal(message.Payload(), &tree); err != nil {
		return ErrInvalidStructure
	}
	for _, restriction := range function.MessageDetails.Message.ParamsRestrictions {
		if err := checkRestriction(tree, restriction); err != nil {
			return err
		}
	}
	return nil
}

// checkRestriction evaluates one param restriction against the parsed
// payload via a JSON-pointer style key walk.
func checkRestriction(tree interface{}, restriction authschema.ParamRestriction) error {
	switch {
	case restriction.MustBeIncluded != nil:
		if _, found := lookup(tree, restriction.MustBeIncluded.Keys); !found {
			return fmt.Errorf("%w: /%s must be included", ErrInvalidMessageParams, joinKeys(restriction.MustBeIncluded.Keys))
		}
	case restriction.CannotBeIncluded != nil:
		if _, found := lookup(tree, restriction.CannotBeIncluded.Keys); found {
			return fmt.Errorf("%w: /%s cannot be included", ErrInvalidMessageParams, joinKeys(restriction.CannotBeIncluded.Keys))
		}
	case restriction.MustBeValue != nil:
		value, found := lookup(tree, restriction.MustBeValue.Keys)
		if !found {
			return fmt.Errorf("%w: /%s must be present", ErrInvalidMessageParams, joinKeys(restriction.MustBeValue.Keys))
		}
		var expected interface{}
		if err := json.Unmarshal(restriction.MustBeValue.Value, &expected); err != nil {
			return fmt.Errorf("%w: invalid expected value", ErrInvalidMessageParams)
		}
		// Compared by parsed value, not by string.
		if !reflect.DeepEqual(value, expected) {
			return fmt.Errorf("%w: /%s has an unexpected value", ErrInvalidMessageParams, joinKeys(restriction.MustBeValue.Keys))
		}
	}
	return nil
}

func lookup(tree interface{}, keys []string) (interface{}, bool) {
	current := tree
	for _, key := range keys {
		object, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = object[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func joinKeys(keys []string) string {
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += "/"
		}
		out += k
	}
	return out
}
