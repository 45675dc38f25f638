package pool

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/relayprotocol/vault-claimer/entity"
	"github.com/relayprotocol/vault-claimer/logging"
)

// FractionalBpsDenominator is the denominator of origin bridge fees:
// a fee of 1e8 fractional bps equals 100% of the advanced amount.
const FractionalBpsDenominator = 100_000_000

// BalanceSource reads the pool-asset balance (native or ERC-20, depending on
// the pool configuration) held by an account on the pool chain.
type BalanceSource interface {
	Balance(ctx context.Context, account common.Address) (*big.Int, error)
}

// FundsMover performs the external asset transfers of the pool: sweeping a
// proxy bridge and paying out loan recipients.
type FundsMover interface {
	PullFromProxy(ctx context.Context, proxy common.Address, amount *big.Int) error
	Payout(ctx context.Context, recipient common.Address, amount *big.Int) error
}

// YieldPool is the external yield vault the pool deposits settled funds into.
type YieldPool interface {
	Address() common.Address
	Deposit(ctx context.Context, amount *big.Int) error
	SharePrice(ctx context.Context) (*big.Int, error)
}

type OriginKey struct {
	ChainID uint64
	Bridge  common.Address
}

// OriginSettings is the curator-supplied configuration of an origin.
type OriginSettings struct {
	ChainID      uint64
	Bridge       common.Address
	ProxyBridge  common.Address
	Curator      common.Address
	MaxDebt      *big.Int
	BridgeFeeBps uint64
	CoolDown     time.Duration
}

type originState struct {
	settings        OriginSettings
	outstandingDebt *big.Int
	lastClaimedAt   *time.Time
}

// OriginStatus is a read-only snapshot of a registered origin.
type OriginStatus struct {
	OriginSettings
	OutstandingDebt *big.Int
	LastClaimedAt   *time.Time
}

type Config struct {
	ChainID       uint64
	Address       common.Address
	Asset         common.Address
	Curator       common.Address
	WrappedNative bool
}

// Pool is the debt-tracking and claim-settlement state machine of a relay
// vault. Every public entry point is serialized by the pool mutex and is
// all-or-nothing: counters are restored if a later external call fails.
type Pool struct {
	mu  sync.Mutex
	cfg Config

	logger    logging.Logger
	balances  BalanceSource
	funds     FundsMover
	yieldPool YieldPool
	origins   map[OriginKey]*originState
	store     Store

	outstandingDebt *big.Int
	accruedFees     *big.Int

	now func() time.Time
}

// Store is the persistence surface of the pool. ProcessedMessages is the
// single dedup set shared by the normal handler and the recovery path.
type Store struct {
	Origins           entity.OriginsRepo
	ProcessedMessages entity.ProcessedMessagesRepo
	Claims            entity.ClaimsRepo
}

func New(logger logging.Logger, cfg Config, store Store, balances BalanceSource, funds FundsMover, yieldPool YieldPool) *Pool {
	return &Pool{
		cfg:             cfg,
		logger:          logger,
		balances:        balances,
		funds:           funds,
		yieldPool:       yieldPool,
		origins:         make(map[OriginKey]*originState),
		store:           store,
		outstandingDebt: new(big.Int),
		accruedFees:     new(big.Int),
		now:             time.Now,
	}
}

// Restore loads persisted origins, rebuilding per-origin and global debt
// counters after a restart.
func (p *Pool) Restore(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rows, err := p.store.Origins.FindByPool(ctx, p.cfg.ChainID, p.cfg.Address)
	if err != nil {
		return fmt.Errorf("can't restore pool origins: %w", err)
	}
	for _, row := range rows {
		key := OriginKey{ChainID: row.ChainID, Bridge: row.Bridge}
		p.origins[key] = &originState{
			settings: OriginSettings{
				ChainID:      row.ChainID,
				Bridge:       row.Bridge,
				ProxyBridge:  row.ProxyBridge,
				Curator:      row.Curator,
				MaxDebt:      new(big.Int).Set(row.MaxDebt.Int),
				BridgeFeeBps: row.BridgeFeeBps,
				CoolDown:     time.Duration(row.CoolDownSeconds) * time.Second,
			},
			outstandingDebt: new(big.Int).Set(row.OutstandingDebt.Int),
			lastClaimedAt:   row.LastClaimedAt,
		}
		p.outstandingDebt.Add(p.outstandingDebt, row.OutstandingDebt.Int)
	}
	p.logger.WithField("origins", len(rows)).Info("restored pool state")
	p.recordDebtMetrics()
	return nil
}

func (p *Pool) ChainID() uint64 {
	return p.cfg.ChainID
}

func (p *Pool) Address() common.Address {
	return p.cfg.Address
}

func (p *Pool) Asset() common.Address {
	return p.cfg.Asset
}

func (p *Pool) Curator() common.Address {
	return p.cfg.Curator
}

func (p *Pool) OutstandingDebt() *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.outstandingDebt)
}

func (p *Pool) AccruedFees() *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.accruedFees)
}

// Origin returns a snapshot of a registered origin.
func (p *Pool) Origin(chainID uint64, bridge common.Address) (*OriginStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.origins[OriginKey{ChainID: chainID, Bridge: bridge}]
	if !ok {
		return nil, &UnauthorizedOriginError{ChainID: chainID, Bridge: bridge}
	}
	return o.snapshot(), nil
}

// Origins returns snapshots of all known origins, enabled and disabled.
func (p *Pool) Origins() []*OriginStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	res := make([]*OriginStatus, 0, len(p.origins))
	for _, o := range p.origins {
		res = append(res, o.snapshot())
	}
	return res
}

// AuditDebt returns the global outstanding debt and the sum of per-origin
// debts. The two must always be equal; a mismatch means the ledger is
// corrupted.
func (p *Pool) AuditDebt() (global, sum *big.Int, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sum = new(big.Int)
	for _, o := range p.origins {
		sum.Add(sum, o.outstandingDebt)
	}
	global = new(big.Int).Set(p.outstandingDebt)
	return global, sum, global.Cmp(sum) == 0
}

func (o *originState) snapshot() *OriginStatus {
	settings := o.settings
	settings.MaxDebt = new(big.Int).Set(o.settings.MaxDebt)
	return &OriginStatus{
		OriginSettings:  settings,
		OutstandingDebt: new(big.Int).Set(o.outstandingDebt),
		LastClaimedAt:   o.lastClaimedAt,
	}
}

func (p *Pool) persistOrigin(ctx context.Context, o *originState) error {
	return p.store.Origins.Ensure(ctx, &entity.Origin{
		PoolChainID:     p.cfg.ChainID,
		PoolAddress:     p.cfg.Address,
		ChainID:         o.settings.ChainID,
		Bridge:          o.settings.Bridge,
		ProxyBridge:     o.settings.ProxyBridge,
		Curator:         o.settings.Curator,
		MaxDebt:         entity.NewBigInt(o.settings.MaxDebt),
		OutstandingDebt: entity.NewBigInt(o.outstandingDebt),
		BridgeFeeBps:    o.settings.BridgeFeeBps,
		CoolDownSeconds: uint64(o.settings.CoolDown / time.Second),
		LastClaimedAt:   o.lastClaimedAt,
	})
}
