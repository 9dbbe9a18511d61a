package cli

import (
	"fmt"

	"cosmossdk.io/math"
	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/client/tx"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/fee-vault/x/feevault/types"
)

const flagRecipient = "recipient"

// TxRoutingNote is shown on the tx root command. The messages have no
// generated protobuf service yet, so a node's msg router rejects them.
const TxRoutingNote = `These commands build and sign fee vault messages, but nodes do not route
them yet: the module's messages have no protobuf Msg service registered, so
a broadcast is rejected with "unrecognized message". Vault operations on a
live chain are exercised through genesis and the keeper.`

// GetTxCmd returns the transaction commands for the fee vault module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Fee vault transaction commands (not routed by nodes yet)",
		Long:                       TxRoutingNote,
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdInitialize(),
		CmdAddReserveVault(),
		CmdDeposit(),
		CmdWithdraw(),
		CmdClaimFees(),
		CmdSetTakeRate(),
		CmdSetAdmin(),
	)

	return cmd
}

func parsePositive(arg string) (math.Int, error) {
	amount, ok := math.NewIntFromString(arg)
	if !ok || !amount.IsPositive() {
		return math.Int{}, fmt.Errorf("invalid amount %q: must be a positive integer in base units", arg)
	}
	return amount, nil
}

func broadcast(cmd *cobra.Command, build func(from string) sdk.Msg) error {
	clientCtx, err := client.GetClientTxContext(cmd)
	if err != nil {
		return err
	}
	msg := build(clientCtx.GetFromAddress().String())
	if m, ok := msg.(interface{ ValidateBasic() error }); ok {
		if err := m.ValidateBasic(); err != nil {
			return err
		}
	}
	return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
}

// CmdInitialize returns the command to initialize the vault
func CmdInitialize() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "initialize [pool-id] [take-rate]",
		Short: "Initialize the vault with the sender as admin",
		Long:  "Take rate has 7 decimals: 1000000 is 10%, 10000000 is 100%.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return broadcast(cmd, func(from string) sdk.Msg {
				return &types.MsgInitialize{Admin: from, Pool: args[0], TakeRate: args[1]}
			})
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdAddReserveVault returns the command to add a reserve
func CmdAddReserveVault() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-reserve [reserve-id]",
		Short: "Start tracking a pool reserve (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return broadcast(cmd, func(from string) sdk.Msg {
				return &types.MsgAddReserveVault{Admin: from, ReserveID: args[0]}
			})
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdDeposit returns the command to deposit into a reserve
func CmdDeposit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit [reserve-id] [amount]",
		Short: "Deposit underlying tokens through the vault",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parsePositive(args[1])
			if err != nil {
				return err
			}
			return broadcast(cmd, func(from string) sdk.Msg {
				return &types.MsgDeposit{Depositor: from, ReserveID: args[0], Amount: amount.String()}
			})
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdWithdraw returns the command to withdraw from a reserve
func CmdWithdraw() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw [reserve-id] [amount]",
		Short: "Withdraw underlying tokens through the vault",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parsePositive(args[1])
			if err != nil {
				return err
			}
			return broadcast(cmd, func(from string) sdk.Msg {
				return &types.MsgWithdraw{Withdrawer: from, ReserveID: args[0], Amount: amount.String()}
			})
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdClaimFees returns the command to claim accrued fees
func CmdClaimFees() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim-fees [reserve-id]",
		Short: "Claim the admin's accrued fees for a reserve",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recipient, err := cmd.Flags().GetString(flagRecipient)
			if err != nil {
				return err
			}
			return broadcast(cmd, func(from string) sdk.Msg {
				if recipient == "" {
					recipient = from
				}
				return &types.MsgClaimFees{Admin: from, ReserveID: args[0], Recipient: recipient}
			})
		},
	}

	cmd.Flags().String(flagRecipient, "", "Address receiving the fees (defaults to the sender)")
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSetTakeRate returns the command to change the take rate
func CmdSetTakeRate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-take-rate [take-rate]",
		Short: "Change the fee take rate (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return broadcast(cmd, func(from string) sdk.Msg {
				return &types.MsgSetTakeRate{Admin: from, TakeRate: args[0]}
			})
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSetAdmin returns the command to transfer the admin role
func CmdSetAdmin() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-admin [new-admin]",
		Short: "Transfer the admin role (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return broadcast(cmd, func(from string) sdk.Msg {
				return &types.MsgSetAdmin{Admin: from, NewAdmin: args[0]}
			})
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}
