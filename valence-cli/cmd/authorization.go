package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valence-protocol/valence-go/chainio"
	"github.com/valence-protocol/valence-go/cosmwasm-schema/authorization"
	"github.com/valence-protocol/valence-go/valence-cli/sdk"
)

func AuthorizationCommand() *cobra.Command {
	command := &cobra.Command{
		Use: "authorization",
	}

	command.AddCommand(authorizationExecute())
	command.AddCommand(authorizationQuery())
	return command
}

func authorizationClient() *chainio.AuthorizationClient {
	clientCtx := sdk.WithKeyring(sdk.NewClientCtx())
	return chainio.NewAuthorizationClient(
		clientCtx,
		viper.GetString("contracts.authorization"),
		sdk.DefaultBroadcastOptions(),
	)
}

func authorizationExecute() *cobra.Command {
	command := &cobra.Command{
		Use: "execute",
	}

	command.AddCommand(&cobra.Command{
		Use:   "create <authorizations.json>",
		Short: "To create authorizations from a JSON file holding a list of authorization definitions.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			data, err := os.ReadFile(args[0])
			if err != nil {
				panic(err)
			}

			var infos []authorization.AuthorizationInfo
			if err := json.Unmarshal(data, &infos); err != nil {
				panic(err)
			}

			response, err := authorizationClient().CreateAuthorizations(context.Background(), infos)
			if err != nil {
				panic(err)
			}

			fmt.Printf("Transaction hash: %s\n", response.Hash.String())
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "disable <label>",
		Short: "To disable an authorization so no new messages can be sent under it.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			response, err := authorizationClient().DisableAuthorization(context.Background(), args[0])
			if err != nil {
				panic(err)
			}

			fmt.Printf("Transaction hash: %s\n", response.Hash.String())
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "enable <label>",
		Short: "To re-enable a disabled authorization.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			response, err := authorizationClient().EnableAuthorization(context.Background(), args[0])
			if err != nil {
				panic(err)
			}

			fmt.Printf("Transaction hash: %s\n", response.Hash.String())
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "send <label> <messages.json>",
		Short: "To send messages under an authorization label for processing.",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			data, err := os.ReadFile(args[1])
			if err != nil {
				panic(err)
			}

			var messages []authorization.ProcessorMessage
			if err := json.Unmarshal(data, &messages); err != nil {
				panic(err)
			}

			var ttl *uint64
			if viper.IsSet("ttl") {
				v := viper.GetUint64("ttl")
				ttl = &v
			}

			response, err := authorizationClient().SendMsgs(context.Background(), args[0], messages, ttl)
			if err != nil {
				panic(err)
			}

			fmt.Printf("Transaction hash: %s\n", response.Hash.String())
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "transfer-ownership <new-owner>",
		Short: "To start a two step ownership transfer to a new owner.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var expiry *uint64
			if viper.IsSet("expiry") {
				v := viper.GetUint64("expiry")
				expiry = &v
			}

			response, err := authorizationClient().TransferOwnership(context.Background(), args[0], expiry)
			if err != nil {
				panic(err)
			}

			fmt.Printf("Transaction hash: %s\n", response.Hash.String())
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "accept-ownership",
		Short: "To accept a pending ownership transfer as the new owner.",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			response, err := authorizationClient().AcceptOwnership(context.Background())
			if err != nil {
				panic(err)
			}

			fmt.Printf("Transaction hash: %s\n", response.Hash.String())
		},
	})

	return command
}

func authorizationQuery() *cobra.Command {
	command := &cobra.Command{
		Use: "query",
	}

	command.AddCommand(&cobra.Command{
		Use:   "ownership",
		Short: "To query the current and pending owner of the authorization contract.",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			clientCtx := sdk.NewClientCtx()
			response, err := chainio.NewAuthorizationClient(
				clientCtx, viper.GetString("contracts.authorization"), sdk.DefaultBroadcastOptions(),
			).Ownership(context.Background())
			if err != nil {
				panic(err)
			}

			printJSON(response)
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "authorizations",
		Short: "To list authorizations, paginated by label.",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			clientCtx := sdk.NewClientCtx()
			response, err := chainio.NewAuthorizationClient(
				clientCtx, viper.GetString("contracts.authorization"), sdk.DefaultBroadcastOptions(),
			).Authorizations(context.Background(), nil, nil)
			if err != nil {
				panic(err)
			}

			printJSON(response)
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "callback <execution-id>",
		Short: "To query the callback recorded for an execution id.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			executionID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				panic(err)
			}

			clientCtx := sdk.NewClientCtx()
			response, err := chainio.NewAuthorizationClient(
				clientCtx, viper.GetString("contracts.authorization"), sdk.DefaultBroadcastOptions(),
			).Callback(context.Background(), executionID)
			if err != nil {
				panic(err)
			}

			printJSON(response)
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "external-domains",
		Short: "To list the external domains registered on the authorization contract.",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			clientCtx := sdk.NewClientCtx()
			response, err := chainio.NewAuthorizationClient(
				clientCtx, viper.GetString("contracts.authorization"), sdk.DefaultBroadcastOptions(),
			).ExternalDomains(context.Background())
			if err != nil {
				panic(err)
			}

			printJSON(response)
		},
	})

	return command
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		panic(err)
	}
	fmt.Println(string(out))
}
