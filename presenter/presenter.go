package presenter

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/relayprotocol/vault-claimer/config"
	"github.com/relayprotocol/vault-claimer/db"
	"github.com/relayprotocol/vault-claimer/logging"
	"github.com/relayprotocol/vault-claimer/pool"
	ownmiddleware "github.com/relayprotocol/vault-claimer/presenter/http/middleware"
	"github.com/relayprotocol/vault-claimer/repository"
)

// Presenter exposes the pool entry points and read-only queries over HTTP.
// Curator-only routes are guarded by an API key; the authenticated caller
// acts as the pool curator.
type Presenter struct {
	logger logging.Logger
	repo   *repository.Repo
	pools  []*pool.Pool
	cfg    *config.PresenterConfig
	root   chi.Router
}

func NewPresenter(logger logging.Logger, repo *repository.Repo, pools []*pool.Pool, cfg *config.PresenterConfig) *Presenter {
	return &Presenter{
		logger: logger,
		repo:   repo,
		pools:  pools,
		cfg:    cfg,
		root:   chi.NewMux(),
	}
}

func (p *Presenter) Serve(addr string) error {
	p.logger.WithField("addr", addr).Info("starting presenter service")
	p.root.Use(middleware.Throttle(5))
	p.root.Use(middleware.RequestID)
	p.root.Use(ownmiddleware.NewLoggerMiddleware(p.logger))
	p.root.Get("/pools", p.wrapJSONHandler(p.GetPools))
	p.root.Get("/submissions/{originChainID:[0-9]+}/{txHash:0x[0-9a-fA-F]{64}}", p.wrapJSONHandler(p.GetSubmissions))
	p.root.Route("/pool/{chainID:[0-9]+}/{address:0x[0-9a-fA-F]{40}}", func(r chi.Router) {
		r.Get("/", p.wrapJSONHandler(p.GetPool))
		r.Get("/origins", p.wrapJSONHandler(p.GetOrigins))
		r.Get("/origins/{originChainID:[0-9]+}/{bridge:0x[0-9a-fA-F]{40}}", p.wrapJSONHandler(p.GetOrigin))
		r.Get("/audit", p.wrapJSONHandler(p.GetAudit))
		r.Get("/claims/{originChainID:[0-9]+}/{bridge:0x[0-9a-fA-F]{40}}", p.wrapJSONHandler(p.GetClaims))
		r.Post("/claim", p.wrapJSONHandler(p.PostClaim))
		r.Post("/messages", p.wrapJSONHandler(p.PostMessage))
		r.Group(func(r chi.Router) {
			r.Use(p.requireCuratorKey)
			r.Post("/origins", p.wrapJSONHandler(p.PostOrigin))
			r.Delete("/origins/{originChainID:[0-9]+}/{bridge:0x[0-9a-fA-F]{40}}", p.wrapJSONHandler(p.DeleteOrigin))
			r.Post("/process-failed", p.wrapJSONHandler(p.PostProcessFailed))
			r.Post("/correct", p.wrapJSONHandler(p.PostCorrect))
		})
	})
	return http.ListenAndServe(addr, p.root)
}

func (p *Presenter) requireCuratorKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p.cfg.CuratorAPIKey == "" || r.Header.Get("X-Api-Key") != p.cfg.CuratorAPIKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (p *Presenter) wrapJSONHandler(handler func(r *http.Request) (interface{}, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logging.FromContext(r.Context())
		res, err := handler(r)
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			logger.WithError(err).Error("failed to handle request")
			w.WriteHeader(errorStatus(err))
			res = map[string]string{"error": err.Error()}
		}

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err = enc.Encode(res); err != nil {
			logger.WithError(err).Error("failed to marshal JSON result")
			w.WriteHeader(http.StatusInternalServerError)
		}
	}
}

func errorStatus(err error) int {
	var (
		originErr    *pool.UnauthorizedOriginError
		ceilingErr   *pool.DebtCeilingExceededError
		processedErr *pool.MessageAlreadyProcessedError
	)
	switch {
	case errors.Is(err, errPoolNotFound), errors.Is(err, db.ErrNotFound), errors.As(err, &originErr):
		return http.StatusNotFound
	case errors.Is(err, pool.ErrUnauthorizedCaller):
		return http.StatusForbidden
	case errors.As(err, &processedErr):
		return http.StatusConflict
	case errors.As(err, &ceilingErr),
		errors.Is(err, pool.ErrNotAWethPool),
		errors.Is(err, pool.ErrSharePriceTooLow),
		errors.Is(err, pool.ErrSharePriceTooHigh),
		errors.Is(err, errBadRequest):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pool.ErrClaimCooldown):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

var (
	errPoolNotFound = errors.New("pool not found")
	errBadRequest   = errors.New("malformed request body")
)

func (p *Presenter) poolFromRequest(r *http.Request) (*pool.Pool, error) {
	chainID, err := strconv.ParseUint(chi.URLParamFromCtx(r.Context(), "chainID"), 10, 64)
	if err != nil {
		return nil, errBadRequest
	}
	address := common.HexToAddress(chi.URLParamFromCtx(r.Context(), "address"))
	for _, candidate := range p.pools {
		if candidate.ChainID() == chainID && candidate.Address() == address {
			return candidate, nil
		}
	}
	return nil, errPoolNotFound
}

func originFromRequest(r *http.Request) (uint64, common.Address, error) {
	chainID, err := strconv.ParseUint(chi.URLParamFromCtx(r.Context(), "originChainID"), 10, 64)
	if err != nil {
		return 0, common.Address{}, errBadRequest
	}
	return chainID, common.HexToAddress(chi.URLParamFromCtx(r.Context(), "bridge")), nil
}

type poolResult struct {
	ChainID         uint64         `json:"chainId"`
	Address         common.Address `json:"address"`
	Asset           common.Address `json:"asset"`
	OutstandingDebt *big.Int       `json:"outstandingDebt"`
	AccruedFees     *big.Int       `json:"accruedFees"`
	Origins         int            `json:"origins"`
}

func poolToResult(target *pool.Pool) *poolResult {
	return &poolResult{
		ChainID:         target.ChainID(),
		Address:         target.Address(),
		Asset:           target.Asset(),
		OutstandingDebt: target.OutstandingDebt(),
		AccruedFees:     target.AccruedFees(),
		Origins:         len(target.Origins()),
	}
}

func (p *Presenter) GetPools(*http.Request) (interface{}, error) {
	res := make([]*poolResult, 0, len(p.pools))
	for _, target := range p.pools {
		res = append(res, poolToResult(target))
	}
	return res, nil
}

func (p *Presenter) GetPool(r *http.Request) (interface{}, error) {
	target, err := p.poolFromRequest(r)
	if err != nil {
		return nil, err
	}
	return poolToResult(target), nil
}

type originResult struct {
	ChainID         uint64         `json:"chainId"`
	Bridge          common.Address `json:"bridge"`
	ProxyBridge     common.Address `json:"proxyBridge"`
	Curator         common.Address `json:"curator"`
	MaxDebt         *big.Int       `json:"maxDebt"`
	OutstandingDebt *big.Int       `json:"outstandingDebt"`
	BridgeFeeBps    uint64         `json:"bridgeFeeBps"`
	CoolDownSeconds uint64         `json:"coolDownSeconds"`
	LastClaimedAt   *time.Time     `json:"lastClaimedAt"`
}

func originToResult(origin *pool.OriginStatus) *originResult {
	return &originResult{
		ChainID:         origin.ChainID,
		Bridge:          origin.Bridge,
		ProxyBridge:     origin.ProxyBridge,
		Curator:         origin.Curator,
		MaxDebt:         origin.MaxDebt,
		OutstandingDebt: origin.OutstandingDebt,
		BridgeFeeBps:    origin.BridgeFeeBps,
		CoolDownSeconds: uint64(origin.CoolDown / time.Second),
		LastClaimedAt:   origin.LastClaimedAt,
	}
}

// GetOrigin returns the persisted registry row of one origin, including the
// bookkeeping timestamps the in-memory snapshot does not carry.
func (p *Presenter) GetOrigin(r *http.Request) (interface{}, error) {
	target, err := p.poolFromRequest(r)
	if err != nil {
		return nil, err
	}
	originChainID, bridge, err := originFromRequest(r)
	if err != nil {
		return nil, err
	}
	return p.repo.Origins.GetByKey(r.Context(), target.ChainID(), target.Address(), originChainID, bridge)
}

func (p *Presenter) GetSubmissions(r *http.Request) (interface{}, error) {
	originChainID, err := strconv.ParseUint(chi.URLParamFromCtx(r.Context(), "originChainID"), 10, 64)
	if err != nil {
		return nil, errBadRequest
	}
	txHash := common.HexToHash(chi.URLParamFromCtx(r.Context(), "txHash"))
	return p.repo.Submissions.FindByTxHash(r.Context(), originChainID, txHash)
}

func (p *Presenter) GetOrigins(r *http.Request) (interface{}, error) {
	target, err := p.poolFromRequest(r)
	if err != nil {
		return nil, err
	}
	origins := target.Origins()
	res := make([]*originResult, 0, len(origins))
	for _, origin := range origins {
		res = append(res, originToResult(origin))
	}
	return res, nil
}

type auditResult struct {
	GlobalDebt *big.Int `json:"globalDebt"`
	SumOfDebts *big.Int `json:"sumOfDebts"`
	InSync     bool     `json:"inSync"`
}

func (p *Presenter) GetAudit(r *http.Request) (interface{}, error) {
	target, err := p.poolFromRequest(r)
	if err != nil {
		return nil, err
	}
	global, sum, ok := target.AuditDebt()
	return &auditResult{GlobalDebt: global, SumOfDebts: sum, InSync: ok}, nil
}

func (p *Presenter) GetClaims(r *http.Request) (interface{}, error) {
	target, err := p.poolFromRequest(r)
	if err != nil {
		return nil, err
	}
	originChainID, bridge, err := originFromRequest(r)
	if err != nil {
		return nil, err
	}
	return p.repo.Claims.FindByOrigin(r.Context(), target.ChainID(), target.Address(), originChainID, bridge)
}

type claimRequest struct {
	OriginChainID uint64         `json:"originChainId"`
	Bridge        common.Address `json:"originBridgeAddress"`
}

func (p *Presenter) PostClaim(r *http.Request) (interface{}, error) {
	target, err := p.poolFromRequest(r)
	if err != nil {
		return nil, err
	}
	req := new(claimRequest)
	if err = json.NewDecoder(r.Body).Decode(req); err != nil {
		return nil, errBadRequest
	}
	if err = target.Claim(r.Context(), req.OriginChainID, req.Bridge); err != nil {
		return nil, err
	}
	origin, err := target.Origin(req.OriginChainID, req.Bridge)
	if err != nil {
		return nil, err
	}
	return originToResult(origin), nil
}

type messageRequest struct {
	OriginChainID uint64         `json:"originChainId"`
	Bridge        common.Address `json:"originBridgeAddress"`
	Payload       hexBytes       `json:"payload"`
}

// hexBytes decodes a 0x-prefixed JSON string.
type hexBytes []byte

func (b *hexBytes) UnmarshalJSON(blob []byte) error {
	var s string
	if err := json.Unmarshal(blob, &s); err != nil {
		return err
	}
	decoded, err := hexutil.Decode(s)
	if err != nil {
		return err
	}
	*b = decoded
	return nil
}

func (p *Presenter) PostMessage(r *http.Request) (interface{}, error) {
	target, err := p.poolFromRequest(r)
	if err != nil {
		return nil, err
	}
	req := new(messageRequest)
	if err = json.NewDecoder(r.Body).Decode(req); err != nil {
		return nil, errBadRequest
	}
	if err = target.Handle(r.Context(), req.OriginChainID, req.Bridge, req.Payload); err != nil {
		return nil, err
	}
	return map[string]string{"status": "processed"}, nil
}

func (p *Presenter) PostProcessFailed(r *http.Request) (interface{}, error) {
	target, err := p.poolFromRequest(r)
	if err != nil {
		return nil, err
	}
	req := new(messageRequest)
	if err = json.NewDecoder(r.Body).Decode(req); err != nil {
		return nil, errBadRequest
	}
	if err = target.ProcessFailedHandler(r.Context(), target.Curator(), req.OriginChainID, req.Bridge, req.Payload); err != nil {
		return nil, err
	}
	return map[string]string{"status": "processed"}, nil
}

type addOriginRequest struct {
	OriginChainID uint64         `json:"originChainId"`
	Bridge        common.Address `json:"originBridgeAddress"`
	ProxyBridge   common.Address `json:"proxyBridgeAddress"`
	Curator       common.Address `json:"curator"`
	MaxDebt       *big.Int       `json:"maxDebt"`
	BridgeFeeBps  uint64         `json:"bridgeFeeBps"`
	CoolDownSecs  uint64         `json:"coolDownSeconds"`
}

func (p *Presenter) PostOrigin(r *http.Request) (interface{}, error) {
	target, err := p.poolFromRequest(r)
	if err != nil {
		return nil, err
	}
	req := new(addOriginRequest)
	if err = json.NewDecoder(r.Body).Decode(req); err != nil {
		return nil, errBadRequest
	}
	err = target.AddOrigin(r.Context(), target.Curator(), pool.OriginSettings{
		ChainID:      req.OriginChainID,
		Bridge:       req.Bridge,
		ProxyBridge:  req.ProxyBridge,
		Curator:      req.Curator,
		MaxDebt:      req.MaxDebt,
		BridgeFeeBps: req.BridgeFeeBps,
		CoolDown:     time.Duration(req.CoolDownSecs) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	origin, err := target.Origin(req.OriginChainID, req.Bridge)
	if err != nil {
		return nil, err
	}
	return originToResult(origin), nil
}

func (p *Presenter) DeleteOrigin(r *http.Request) (interface{}, error) {
	target, err := p.poolFromRequest(r)
	if err != nil {
		return nil, err
	}
	originChainID, bridge, err := originFromRequest(r)
	if err != nil {
		return nil, err
	}
	if err = target.DisableOrigin(r.Context(), target.Curator(), originChainID, bridge); err != nil {
		return nil, err
	}
	origin, err := target.Origin(originChainID, bridge)
	if err != nil {
		return nil, err
	}
	return originToResult(origin), nil
}

type correctRequest struct {
	OriginChainID uint64         `json:"originChainId"`
	Bridge        common.Address `json:"originBridgeAddress"`
	Amount        *big.Int       `json:"amount"`
	Decrease      bool           `json:"decrease"`
}

func (p *Presenter) PostCorrect(r *http.Request) (interface{}, error) {
	target, err := p.poolFromRequest(r)
	if err != nil {
		return nil, err
	}
	req := new(correctRequest)
	if err = json.NewDecoder(r.Body).Decode(req); err != nil || req.Amount == nil {
		return nil, errBadRequest
	}
	if err = target.Correct(r.Context(), target.Curator(), req.OriginChainID, req.Bridge, req.Amount, req.Decrease); err != nil {
		return nil, err
	}
	origin, err := target.Origin(req.OriginChainID, req.Bridge)
	if err != nil {
		return nil, err
	}
	return originToResult(origin), nil
}
