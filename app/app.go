package app

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"cosmossdk.io/core/appmodule"
	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtcrypto "github.com/cometbft/cometbft/proto/tendermint/crypto"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/baseapp"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/grpc/cmtservice"
	nodeservice "github.com/cosmos/cosmos-sdk/client/grpc/node"
	"github.com/cosmos/cosmos-sdk/codec"
	"github.com/cosmos/cosmos-sdk/codec/address"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/runtime"
	"github.com/cosmos/cosmos-sdk/server/api"
	"github.com/cosmos/cosmos-sdk/server/config"
	servertypes "github.com/cosmos/cosmos-sdk/server/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/module"
	"github.com/cosmos/cosmos-sdk/x/auth"
	authkeeper "github.com/cosmos/cosmos-sdk/x/auth/keeper"
	authtx "github.com/cosmos/cosmos-sdk/x/auth/tx"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	"github.com/cosmos/cosmos-sdk/x/bank"
	bankkeeper "github.com/cosmos/cosmos-sdk/x/bank/keeper"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	"github.com/cosmos/cosmos-sdk/x/consensus"
	consensusparamkeeper "github.com/cosmos/cosmos-sdk/x/consensus/keeper"
	consensusparamtypes "github.com/cosmos/cosmos-sdk/x/consensus/types"
	"github.com/cosmos/cosmos-sdk/x/genutil"
	genutiltypes "github.com/cosmos/cosmos-sdk/x/genutil/types"
	"github.com/cosmos/cosmos-sdk/x/staking"
	gogoprotograpc "github.com/cosmos/gogoproto/grpc"

	vaultapi "github.com/openalpha/fee-vault/api"
	"github.com/openalpha/fee-vault/api/websocket"
	"github.com/openalpha/fee-vault/x/feevault"
	feevaultkeeper "github.com/openalpha/fee-vault/x/feevault/keeper"
	feevaulttypes "github.com/openalpha/fee-vault/x/feevault/types"
	"github.com/openalpha/fee-vault/x/lendpool"
	lendpoolkeeper "github.com/openalpha/fee-vault/x/lendpool/keeper"
	lendpooltypes "github.com/openalpha/fee-vault/x/lendpool/types"
)

const (
	Name = "feevault"
)

var (
	// DefaultNodeHome default home directories for the application daemon
	DefaultNodeHome string

	// ModuleBasics defines the module BasicManager used for codec registration
	ModuleBasics = module.NewBasicManager(
		auth.AppModuleBasic{},
		bank.AppModuleBasic{},
		staking.AppModuleBasic{},
		genutil.NewAppModuleBasic(genutiltypes.DefaultMessageValidator),
		consensus.AppModuleBasic{},
		lendpool.AppModuleBasic{},
		feevault.AppModuleBasic{},
	)
)

func init() {
	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	DefaultNodeHome = filepath.Join(userHomeDir, ".feevault")
}

// App extends an ABCI application
type App struct {
	*baseapp.BaseApp

	legacyAmino       *codec.LegacyAmino
	appCodec          codec.Codec
	interfaceRegistry codectypes.InterfaceRegistry
	txConfig          client.TxConfig

	// Keys
	keys    map[string]*storetypes.KVStoreKey
	tkeys   map[string]*storetypes.TransientStoreKey
	memKeys map[string]*storetypes.MemoryStoreKey

	// SDK Keepers
	ConsensusParamsKeeper consensusparamkeeper.Keeper
	AccountKeeper         authkeeper.AccountKeeper
	BankKeeper            bankkeeper.BaseKeeper

	// Custom module keepers
	LendPoolKeeper *lendpoolkeeper.Keeper
	FeeVaultKeeper *feevaultkeeper.Keeper

	lendPoolModule lendpool.AppModule
	feeVaultModule feevault.AppModule

	// Vault event stream, fed from finalized blocks
	EventStream *vaultapi.EventStream
	eventHub    *websocket.Hub

	vaultConfig VaultConfig

	// Module Manager
	BasicModuleManager module.BasicManager
}

// NewApp returns a new App instance
func NewApp(
	logger log.Logger,
	db dbm.DB,
	traceStore io.Writer,
	loadLatest bool,
	appOpts servertypes.AppOptions,
	baseAppOptions ...func(*baseapp.BaseApp),
) *App {
	encodingConfig := MakeEncodingConfig()
	appCodec := encodingConfig.Codec
	legacyAmino := encodingConfig.Amino
	interfaceRegistry := encodingConfig.InterfaceRegistry
	vaultConfig := ReadVaultConfig(appOpts)

	bApp := baseapp.NewBaseApp(Name, logger, db, encodingConfig.TxConfig.TxDecoder(), baseAppOptions...)
	bApp.SetCommitMultiStoreTracer(traceStore)
	bApp.SetInterfaceRegistry(interfaceRegistry)

	keys := storetypes.NewKVStoreKeys(
		authtypes.StoreKey,
		banktypes.StoreKey,
		lendpooltypes.StoreKey,
		feevaulttypes.StoreKey,
		consensusparamtypes.StoreKey,
	)
	tkeys := storetypes.NewTransientStoreKeys()
	memKeys := storetypes.NewMemoryStoreKeys()

	app := &App{
		BaseApp:            bApp,
		legacyAmino:        legacyAmino,
		appCodec:           appCodec,
		interfaceRegistry:  interfaceRegistry,
		txConfig:           encodingConfig.TxConfig,
		keys:               keys,
		tkeys:              tkeys,
		memKeys:            memKeys,
		vaultConfig:        vaultConfig,
		BasicModuleManager: ModuleBasics,
	}

	govAuthority := authtypes.NewModuleAddress("gov").String()

	app.ConsensusParamsKeeper = consensusparamkeeper.NewKeeper(
		appCodec,
		runtime.NewKVStoreService(keys[consensusparamtypes.StoreKey]),
		govAuthority,
		runtime.EventService{},
	)
	bApp.SetParamStore(app.ConsensusParamsKeeper.ParamsStore)

	// The lending pool holds supplied funds; the vault only owns b-token
	// positions in it.
	maccPerms := map[string][]string{
		authtypes.FeeCollectorName: nil,
		lendpooltypes.ModuleName:   nil,
		feevaulttypes.ModuleName:   nil,
	}

	addrCodec := address.NewBech32Codec(sdk.GetConfig().GetBech32AccountAddrPrefix())

	app.AccountKeeper = authkeeper.NewAccountKeeper(
		appCodec,
		runtime.NewKVStoreService(keys[authtypes.StoreKey]),
		authtypes.ProtoBaseAccount,
		maccPerms,
		addrCodec,
		sdk.GetConfig().GetBech32AccountAddrPrefix(),
		govAuthority,
	)

	app.BankKeeper = bankkeeper.NewBaseKeeper(
		appCodec,
		runtime.NewKVStoreService(keys[banktypes.StoreKey]),
		app.AccountKeeper,
		BlockedModuleAccountAddrs(maccPerms),
		govAuthority,
		logger,
	)

	poolAuthority := vaultConfig.PoolAuthority
	if poolAuthority == "" {
		poolAuthority = govAuthority
	}
	app.LendPoolKeeper = lendpoolkeeper.NewKeeper(
		appCodec,
		keys[lendpooltypes.StoreKey],
		app.BankKeeper,
		poolAuthority,
		logger,
	)

	// Empty authority: the first MsgInitialize (or genesis) sets the admin
	app.FeeVaultKeeper = feevaultkeeper.NewKeeper(
		appCodec,
		keys[feevaulttypes.StoreKey],
		newVaultPoolAdapter(app.LendPoolKeeper),
		"",
		logger,
	)

	app.lendPoolModule = lendpool.NewAppModule(app.LendPoolKeeper)
	app.feeVaultModule = feevault.NewAppModule(app.FeeVaultKeeper)

	if vaultConfig.APIEnable {
		app.eventHub = websocket.NewHub(nil, logger)
		app.EventStream = vaultapi.NewEventStream(app.eventHub, vaultConfig.EventBufferSize, logger)
		bApp.SetStreamingManager(storetypes.StreamingManager{
			ABCIListeners: []storetypes.ABCIListener{app.EventStream},
		})
	}

	lendpooltypes.RegisterInterfaces(interfaceRegistry)
	feevaulttypes.RegisterInterfaces(interfaceRegistry)

	lendpooltypes.RegisterMsgServer(bApp.MsgServiceRouter(), lendpoolkeeper.NewMsgServerImpl(app.LendPoolKeeper))
	feevaulttypes.RegisterMsgServer(bApp.MsgServiceRouter(), feevaultkeeper.NewMsgServerImpl(app.FeeVaultKeeper))

	authtypes.RegisterQueryServer(bApp.GRPCQueryRouter(), authkeeper.NewQueryServer(app.AccountKeeper))
	banktypes.RegisterQueryServer(bApp.GRPCQueryRouter(), bankkeeper.NewQuerier(&app.BankKeeper))

	app.MountKVStores(keys)
	app.MountTransientStores(tkeys)
	app.MountMemoryStores(memKeys)

	app.SetInitChainer(app.InitChainer)
	app.SetBeginBlocker(app.BeginBlocker)
	app.SetEndBlocker(app.EndBlocker)

	if loadLatest {
		if err := app.LoadLatestVersion(); err != nil {
			panic(err)
		}
	}

	return app
}

// Name returns the name of the App
func (app *App) Name() string { return app.BaseApp.Name() }

// BeginBlocker executes begin block logic
func (app *App) BeginBlocker(ctx sdk.Context) (sdk.BeginBlock, error) {
	return sdk.BeginBlock{}, nil
}

// EndBlocker checks the vault's share accounting every InvariantCheckPeriod
// blocks. A broken invariant is logged, not halted on.
func (app *App) EndBlocker(ctx sdk.Context) (sdk.EndBlock, error) {
	period := app.vaultConfig.InvariantCheckPeriod
	if period <= 0 || ctx.BlockHeight()%period != 0 {
		return sdk.EndBlock{}, nil
	}

	start := time.Now()
	msg, broken := app.FeeVaultKeeper.ReservesInvariant(ctx)
	if broken {
		app.Logger().Error("fee vault invariant broken", "block", ctx.BlockHeight(), "reason", msg)
	}

	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		app.Logger().Warn("EndBlocker exceeded latency threshold",
			"block", ctx.BlockHeight(),
			"duration_ms", elapsed.Milliseconds(),
			"threshold_ms", 100,
		)
	}
	return sdk.EndBlock{}, nil
}

// StakingGenesisState represents the staking module's genesis state
type StakingGenesisState struct {
	Validators []struct {
		ConsensusPubkey struct {
			Type string `json:"@type"`
			Key  string `json:"key"`
		} `json:"consensus_pubkey"`
		Tokens string `json:"tokens"`
		Status string `json:"status"`
	} `json:"validators"`
}

// GenutilGenesisState represents the genutil module's genesis state
type GenutilGenesisState struct {
	GenTxs []json.RawMessage `json:"gen_txs"`
}

// GenTx represents a genesis transaction
type GenTx struct {
	Body struct {
		Messages []json.RawMessage `json:"messages"`
	} `json:"body"`
}

// MsgCreateValidator represents the create validator message
type MsgCreateValidator struct {
	Type   string `json:"@type"`
	Pubkey struct {
		Type string `json:"@type"`
		Key  string `json:"key"`
	} `json:"pubkey"`
}

// InitChainer loads accounts, bank balances, the lending pool and the vault
// from genesis, then picks the validator set. Invalid module genesis panics.
func (app *App) InitChainer(ctx sdk.Context, req *abci.RequestInitChain) (*abci.ResponseInitChain, error) {
	var genesisState map[string]json.RawMessage
	if err := json.Unmarshal(req.AppStateBytes, &genesisState); err != nil {
		return nil, err
	}

	if err := app.initModuleGenesis(ctx, genesisState); err != nil {
		return nil, err
	}

	if len(req.Validators) > 0 {
		return &abci.ResponseInitChain{
			Validators: req.Validators,
		}, nil
	}

	return &abci.ResponseInitChain{
		Validators: genesisValidators(genesisState),
	}, nil
}

func (app *App) initModuleGenesis(ctx sdk.Context, genesisState map[string]json.RawMessage) error {
	if bz, ok := genesisState[authtypes.ModuleName]; ok {
		var authGenesis authtypes.GenesisState
		if err := app.appCodec.UnmarshalJSON(bz, &authGenesis); err != nil {
			return fmt.Errorf("auth genesis: %w", err)
		}
		app.AccountKeeper.InitGenesis(ctx, authGenesis)
	}
	if bz, ok := genesisState[banktypes.ModuleName]; ok {
		var bankGenesis banktypes.GenesisState
		if err := app.appCodec.UnmarshalJSON(bz, &bankGenesis); err != nil {
			return fmt.Errorf("bank genesis: %w", err)
		}
		app.BankKeeper.InitGenesis(ctx, &bankGenesis)
	}

	// the pool must exist before the vault reads its rates
	app.lendPoolModule.InitGenesis(ctx, app.appCodec, genesisState[lendpooltypes.ModuleName])
	app.feeVaultModule.InitGenesis(ctx, app.appCodec, genesisState[feevaulttypes.ModuleName])
	return nil
}

// genesisValidators reads bonded validators from staking genesis, falling
// back to the create-validator messages in gentxs.
func genesisValidators(genesisState map[string]json.RawMessage) []abci.ValidatorUpdate {
	var validators []abci.ValidatorUpdate
	addValidator := func(key string) {
		pubKeyBytes, err := base64.StdEncoding.DecodeString(key)
		if err != nil {
			return
		}
		validators = append(validators, abci.ValidatorUpdate{
			PubKey: cmtcrypto.PublicKey{
				Sum: &cmtcrypto.PublicKey_Ed25519{
					Ed25519: pubKeyBytes,
				},
			},
			Power: 100,
		})
	}

	if stakingGenesis, ok := genesisState["staking"]; ok {
		var stakingState StakingGenesisState
		if err := json.Unmarshal(stakingGenesis, &stakingState); err == nil {
			for _, val := range stakingState.Validators {
				if val.Status == "BOND_STATUS_BONDED" {
					addValidator(val.ConsensusPubkey.Key)
				}
			}
		}
	}
	if len(validators) > 0 {
		return validators
	}

	genutilGenesis, ok := genesisState["genutil"]
	if !ok {
		return nil
	}
	var genutilState GenutilGenesisState
	if err := json.Unmarshal(genutilGenesis, &genutilState); err != nil {
		return nil
	}
	for _, genTxRaw := range genutilState.GenTxs {
		var genTx GenTx
		if err := json.Unmarshal(genTxRaw, &genTx); err != nil {
			continue
		}
		for _, msgRaw := range genTx.Body.Messages {
			var msg MsgCreateValidator
			if err := json.Unmarshal(msgRaw, &msg); err != nil {
				continue
			}
			if msg.Type == "/cosmos.staking.v1beta1.MsgCreateValidator" {
				addValidator(msg.Pubkey.Key)
			}
		}
	}
	return validators
}

// ExportAppStateAndValidators exports accounts, bank balances, the lending
// pool and the vault at the latest committed height.
func (app *App) ExportAppStateAndValidators() (servertypes.ExportedApp, error) {
	ctx := app.NewContextLegacy(true, cmtproto.Header{Height: app.LastBlockHeight()})

	genesisState := make(map[string]json.RawMessage)

	authGenesis, err := app.appCodec.MarshalJSON(app.AccountKeeper.ExportGenesis(ctx))
	if err != nil {
		return servertypes.ExportedApp{}, err
	}
	genesisState[authtypes.ModuleName] = authGenesis

	bankGenesis, err := app.appCodec.MarshalJSON(app.BankKeeper.ExportGenesis(ctx))
	if err != nil {
		return servertypes.ExportedApp{}, err
	}
	genesisState[banktypes.ModuleName] = bankGenesis

	genesisState[lendpooltypes.ModuleName] = app.lendPoolModule.ExportGenesis(ctx, app.appCodec)
	genesisState[feevaulttypes.ModuleName] = app.feeVaultModule.ExportGenesis(ctx, app.appCodec)

	appState, err := json.MarshalIndent(genesisState, "", "  ")
	if err != nil {
		return servertypes.ExportedApp{}, err
	}

	return servertypes.ExportedApp{
		AppState:        appState,
		Height:          app.LastBlockHeight() + 1,
		ConsensusParams: app.GetConsensusParams(ctx),
	}, nil
}

// LoadHeight loads a particular height
func (app *App) LoadHeight(height int64) error {
	return app.LoadVersion(height)
}

// LegacyAmino returns the legacy amino codec
func (app *App) LegacyAmino() *codec.LegacyAmino {
	return app.legacyAmino
}

// AppCodec returns the app codec
func (app *App) AppCodec() codec.Codec {
	return app.appCodec
}

// InterfaceRegistry returns the InterfaceRegistry
func (app *App) InterfaceRegistry() codectypes.InterfaceRegistry {
	return app.interfaceRegistry
}

// RegisterAPIRoutes registers all application module routes and, when
// enabled, the vault's REST, websocket and metrics routes.
func (app *App) RegisterAPIRoutes(apiSvr *api.Server, apiConfig config.APIConfig) {
	clientCtx := apiSvr.ClientCtx
	ModuleBasics.RegisterGRPCGatewayRoutes(clientCtx, apiSvr.GRPCGatewayRouter)

	if !app.vaultConfig.APIEnable {
		return
	}
	if app.eventHub != nil {
		go app.eventHub.Run(context.Background())
	}
	vaultServer := vaultapi.NewServer(app.vaultConfig.APIConfig(), clientCtx, app.EventStream, app.eventHub, app.Logger())
	vaultServer.RegisterRoutes(apiSvr.Router)
	app.Logger().Info("fee vault API routes registered", "prefix", vaultapi.RoutePrefix)
}

// GetKey returns a store key
func (app *App) GetKey(storeKey string) *storetypes.KVStoreKey {
	return app.keys[storeKey]
}

// GetTKey returns a transient store key
func (app *App) GetTKey(storeKey string) *storetypes.TransientStoreKey {
	return app.tkeys[storeKey]
}

// GetMemKey returns a memory store key
func (app *App) GetMemKey(storeKey string) *storetypes.MemoryStoreKey {
	return app.memKeys[storeKey]
}

// TxConfig returns the transaction config
func (app *App) TxConfig() client.TxConfig {
	return app.txConfig
}

// AutoCliOpts returns the autocli options for the app
func (app *App) AutoCliOpts() map[string]appmodule.AppModule {
	return map[string]appmodule.AppModule{
		lendpooltypes.ModuleName: app.lendPoolModule,
		feevaulttypes.ModuleName: app.feeVaultModule,
	}
}

// RegisterTxService implements the Application.RegisterTxService method
func (app *App) RegisterTxService(clientCtx client.Context) {
	authtx.RegisterTxService(app.BaseApp.GRPCQueryRouter(), clientCtx, app.BaseApp.Simulate, app.interfaceRegistry)
}

// RegisterTendermintService implements the Application.RegisterTendermintService method
func (app *App) RegisterTendermintService(clientCtx client.Context) {
	cmtservice.RegisterTendermintService(
		clientCtx,
		app.BaseApp.GRPCQueryRouter(),
		app.interfaceRegistry,
		app.Query,
	)
}

// RegisterNodeService implements the Application.RegisterNodeService method
func (app *App) RegisterNodeService(clientCtx client.Context, cfg config.Config) {
	nodeservice.RegisterNodeService(clientCtx, app.BaseApp.GRPCQueryRouter(), cfg)
}

// RegisterGRPCServer registers the app's gRPC services
func (app *App) RegisterGRPCServer(server gogoprotograpc.Server) {
	// module services are registered on the routers in NewApp
}

// SimulationManager returns the app's simulation manager
func (app *App) SimulationManager() *module.SimulationManager {
	return nil
}

// BlockedModuleAccountAddrs returns module account addresses that may not
// receive coins through plain sends.
func BlockedModuleAccountAddrs(maccPerms map[string][]string) map[string]bool {
	blockedAddrs := make(map[string]bool)
	for acc := range maccPerms {
		blockedAddrs[authtypes.NewModuleAddress(acc).String()] = true
	}
	// the lending pool pays out withdrawals from its own account
	delete(blockedAddrs, authtypes.NewModuleAddress(lendpooltypes.ModuleName).String())
	return blockedAddrs
}
