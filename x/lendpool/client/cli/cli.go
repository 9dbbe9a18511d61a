package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/client/tx"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/fee-vault/x/lendpool/types"
)

// GetTxCmd returns the transaction commands for the lending pool module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Lending pool transaction commands (not routed by nodes yet)",
		Long:                       "These commands build and sign lending pool messages, but nodes do not\nroute them yet: the module's messages have no protobuf Msg service registered.",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}
	cmd.AddCommand(CmdCreateReserve(), CmdSetBRate())
	return cmd
}

// GetQueryCmd returns the cli query commands for the lending pool module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Querying commands for the lending pool module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}
	cmd.AddCommand(CmdQueryReserve())
	return cmd
}

func broadcast(cmd *cobra.Command, msg interface {
	sdk.Msg
	ValidateBasic() error
}) error {
	if err := msg.ValidateBasic(); err != nil {
		return err
	}
	clientCtx, err := client.GetClientTxContext(cmd)
	if err != nil {
		return err
	}
	return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
}

// CmdCreateReserve returns the command to open a reserve
func CmdCreateReserve() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-reserve [pool-id] [asset] [b-rate]",
		Short: "Open a reserve; b-rate has 12 decimals",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}
			return broadcast(cmd, &types.MsgCreateReserve{
				Authority: clientCtx.GetFromAddress().String(),
				PoolID:    args[0],
				Asset:     args[1],
				BRate:     args[2],
			})
		},
	}
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSetBRate returns the command to move a reserve's b_rate
func CmdSetBRate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-b-rate [pool-id] [asset] [b-rate]",
		Short: "Set a reserve's b_rate; b-rate has 12 decimals",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}
			return broadcast(cmd, &types.MsgSetBRate{
				Authority: clientCtx.GetFromAddress().String(),
				PoolID:    args[0],
				Asset:     args[1],
				BRate:     args[2],
			})
		},
	}
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdQueryReserve returns the command to query a reserve
func CmdQueryReserve() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reserve [pool-id] [asset]",
		Short: "Query a reserve's b_rate and b-token supply",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}
			bz, _, err := clientCtx.QueryStore(types.ReserveKey(args[0], args[1]), types.StoreKey)
			if err != nil {
				return err
			}
			if len(bz) == 0 {
				return fmt.Errorf("reserve %s/%s not found", args[0], args[1])
			}
			var reserve types.Reserve
			if err := json.Unmarshal(bz, &reserve); err != nil {
				return err
			}
			output, err := json.MarshalIndent(reserve, "", "  ")
			if err != nil {
				return err
			}
			return clientCtx.PrintRaw(output)
		},
	}
	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}
