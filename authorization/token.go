package authorization

import "fmt"

// PermissionTokenDenom derives the tokenfactory denom of an authorization's
// permission token. The pair (contract, label) makes it deterministic and
// unique per authorization.
func PermissionTokenDenom(contractAddr, label string) string {
	return fmt.Sprintf("factory/%s/%s", contractAddr, label)
}
