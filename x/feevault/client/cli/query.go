package cli

import (
	"encoding/json"
	"fmt"

	"cosmossdk.io/math"
	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/fee-vault/x/feevault/types"
)

// GetQueryCmd returns the cli query commands for the fee vault module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Querying commands for the fee vault module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryConfig(),
		CmdQueryReserve(),
		CmdQueryPosition(),
	)

	return cmd
}

func queryRecord(clientCtx client.Context, key []byte, out interface{}) (bool, error) {
	bz, _, err := clientCtx.QueryStore(key, types.StoreKey)
	if err != nil {
		return false, err
	}
	if len(bz) == 0 {
		return false, nil
	}
	return true, json.Unmarshal(bz, out)
}

func printJSON(clientCtx client.Context, v interface{}) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return clientCtx.PrintRaw(output)
}

// CmdQueryConfig returns the command to query the vault config
func CmdQueryConfig() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Query the vault admin, pool and take rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}

			var config types.VaultConfig
			found, err := queryRecord(clientCtx, types.ConfigKey, &config)
			if err != nil {
				return err
			}
			if !found {
				return types.ErrNotInitialized
			}
			return printJSON(clientCtx, config)
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryReserve returns the command to query a reserve vault
func CmdQueryReserve() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reserve [reserve-id]",
		Short: "Query a reserve vault's totals and last observed b_rate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}

			var vault types.ReserveVault
			found, err := queryRecord(clientCtx, types.ReserveVaultKey(args[0]), &vault)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("reserve vault not found: %s", args[0])
			}
			return printJSON(clientCtx, vault)
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryPosition returns the command to query a depositor's position
func CmdQueryPosition() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "position [reserve-id] [address]",
		Short: "Query a depositor's shares and their value at the last observed b_rate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}
			reserveID, user := args[0], args[1]
			if _, err := sdk.AccAddressFromBech32(user); err != nil {
				return fmt.Errorf("invalid address: %w", err)
			}

			var vault types.ReserveVault
			found, err := queryRecord(clientCtx, types.ReserveVaultKey(reserveID), &vault)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("reserve vault not found: %s", reserveID)
			}

			position := types.UserPosition{ReserveID: reserveID, User: user, Shares: math.ZeroInt()}
			if _, err := queryRecord(clientCtx, types.SharesKey(reserveID, user), &position); err != nil {
				return err
			}

			return printJSON(clientCtx, types.NewPositionView(&vault, user, position.Shares))
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}
