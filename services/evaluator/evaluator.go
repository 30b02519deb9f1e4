// Package evaluator implements the fold from spec.md §4.7: the
// deterministic application of a contract's ordered interaction stream
// over its initial state through a sandboxed handler, with re-entrant
// cross-contract reads, internal writes gated by a transactional
// scratchpad, and an optional confirmation-aware cache.
package evaluator

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"

	"github.com/pkg/errors"

	"github.com/warp-contracts/weave-engine/apperrors"
	"github.com/warp-contracts/weave-engine/config"
	"github.com/warp-contracts/weave-engine/crypto/verifier"
	"github.com/warp-contracts/weave-engine/events"
	"github.com/warp-contracts/weave-engine/instrumentation/log"
	"github.com/warp-contracts/weave-engine/instrumentation/trace"
	"github.com/warp-contracts/weave-engine/model"
	"github.com/warp-contracts/weave-engine/progress"
	"github.com/warp-contracts/weave-engine/services/definition"
	"github.com/warp-contracts/weave-engine/services/interactionstate"
	"github.com/warp-contracts/weave-engine/services/loader"
	"github.com/warp-contracts/weave-engine/services/sandbox"
	"github.com/warp-contracts/weave-engine/sortkey"
)

// State is the representation the evaluator folds: raw JSON, so one
// running engine evaluates arbitrarily many contracts side by side
// regardless of each guest's concrete state shape. A call site that
// owns a particular contract's schema unmarshals Result.State itself.
type State = interactionstate.State

// inputTagName and interactWriteTagName are the recognized tags (spec.md
// §6) the fold itself interprets; every other tag passes through to the
// handler opaquely.
const (
	inputTagName        = "input"
	interactWriteTagName = "interact-write"
	signatureTagName    = "signature"
	writeValidityKey    = "__write"
	constructorId       = "__init"
)

// Frame is one entry of the caller's current_tx_stack (spec.md §4.7 step
// 2): the contract and interaction id active at that call depth.
type Frame struct {
	Contract      string
	InteractionId string
}

// HandlerFactory builds a sandbox.Handler for a resolved definition.
// *executor.Factory[json.RawMessage] and *executor.CachingFactory[json.RawMessage]
// both satisfy it.
type HandlerFactory interface {
	Create(def model.ContractDefinition, cfg config.EvaluationConfig) (sandbox.Handler[json.RawMessage], error)
}

// Modifier runs after every directly-applied interaction (spec.md §4.7
// step 10), given the chance to swap the active definition. Evolve is
// the only built-in one.
type Modifier interface {
	Apply(ctx context.Context, contract string, activeDef model.ContractDefinition, i model.Interaction, result sandbox.Result[json.RawMessage]) (model.ContractDefinition, error)
}

// Request describes one readState call.
type Request struct {
	Contract         string
	RequestedSortKey string // empty means latest
	Config           config.EvaluationConfig
	ForcedSrcTxId    string
}

// LastConfirmed is handed to OnStateEvaluated after a root call applies
// a cacheable interaction, for callers that want to observe the running
// confirmed snapshot independently of the cache itself.
type LastConfirmed struct {
	Contract    string
	Interaction model.Interaction
	Result      *model.EvalStateResult[json.RawMessage]
}

// Evaluator folds one contract's interaction stream. A nil Cache makes
// it the base (non-cacheable) variant from spec.md §4.7; a non-nil Cache
// adds the exact-match cache probe, confirmation-aware persistence and
// the cache_every_n_interactions flush of the cacheable variant — the
// two are one algorithm with caching switched on or off, not two
// parallel implementations.
type Evaluator struct {
	Definitions      *definition.Loader
	Loader           loader.Loader
	Executor         HandlerFactory
	Cache            interactionstate.Base
	Modifiers        []Modifier
	OwnerVerifier    verifier.OwnerVerifier
	VrfVerifier      verifier.VrfVerifier
	Progress         progress.Reporter
	Events           events.Sink
	Logger           log.BasicLogger
	OnStateEvaluated func(LastConfirmed)

	kvMu sync.Mutex
	kv   map[string]*memKV
}

// Eval is the public entrypoint: it opens a fresh scratchpad for the
// root call and folds req.Contract's history up to RequestedSortKey.
func (e *Evaluator) Eval(ctx context.Context, req Request) (string, *model.EvalStateResult[json.RawMessage], error) {
	ctx = trace.NewContext(ctx, "eval:"+req.Contract)
	sp := interactionstate.New(e.Cache)
	return e.eval(ctx, req, sp, nil)
}

func (e *Evaluator) eval(ctx context.Context, req Request, sp *interactionstate.Scratchpad, stack []Frame) (string, *model.EvalStateResult[json.RawMessage], error) {
	cfg := req.Config
	if cfg == nil {
		cfg = config.Defaults().Build()
	}

	// Step 1: exact-match cache probe, cacheable variant only.
	if e.Cache != nil && req.RequestedSortKey != "" {
		if cached, ok, err := sp.Get(req.Contract, req.RequestedSortKey); err != nil {
			return "", nil, err
		} else if ok {
			return req.RequestedSortKey, cached, nil
		}
	}

	def, err := e.Definitions.Load(ctx, req.Contract, req.ForcedSrcTxId)
	if err != nil {
		return "", nil, err
	}
	handler, err := e.Executor.Create(def, cfg)
	if err != nil {
		return "", nil, err
	}

	all, err := e.Loader.Load(ctx, req.Contract, "", req.RequestedSortKey, loader.DefaultOptions())
	if err != nil {
		return "", nil, err
	}
	interactions := sortkey.Sort(all)

	// Step 3: base state.
	current, baseKey, haveBase, err := sp.GetLessOrEqual(req.Contract, req.RequestedSortKey)
	if err != nil {
		return "", nil, err
	}
	if !haveBase {
		current = model.NewEvalStateResult[json.RawMessage](def.InitState)
		baseKey = sortkey.Genesis()
		sp.SetInitial(req.Contract, baseKey, current)
	} else {
		current = current.Clone()
	}

	missing := make([]model.Interaction, 0, len(interactions))
	for _, i := range interactions {
		if !sortkey.Less(baseKey, i.SortKey) {
			continue
		}
		if req.RequestedSortKey != "" && sortkey.Less(req.RequestedSortKey, i.SortKey) {
			continue
		}
		missing = append(missing, i)
	}

	// Step 2: inf-loop guard — truncate at the first interaction id this
	// contract already has open on the caller's stack.
	for _, frame := range stack {
		if frame.Contract != req.Contract {
			continue
		}
		for idx, i := range missing {
			if i.Id == frame.InteractionId {
				missing = missing[:idx]
				break
			}
		}
	}

	// Step 4: constructor, only at a cold start.
	if cfg.UseConstructor() && !haveBase {
		host := e.hostFor(sp, stack, req.Contract, baseKey, cfg)
		newState, err := handler.MaybeCallStateConstructor(ctx, host, current.State, def.Owner)
		if err != nil {
			sp.Rollback(model.Interaction{SortKey: baseKey}, true)
			return "", nil, apperrors.NewContractError(apperrors.SubtypeConstructor, err)
		}
		current.State = newState
		current.Validity.Set(constructorId, true)
		sp.Update(req.Contract, baseKey, current.Clone(), false)
	}

	if len(missing) == 0 {
		if !haveBase {
			if err := sp.Commit(model.Interaction{SortKey: baseKey}, true); err != nil {
				return "", nil, err
			}
		}
		return baseKey, current, nil
	}

	activeDef := def
	activeHandler := handler
	stopped := false
	var lastProcessed model.Interaction

	for idx, i := range missing {
		lastProcessed = i
		if token, ok := progress.TokenFromContext(ctx); ok && token.Cancelled() {
			return "", nil, apperrors.NewAbortError("evaluation cancelled")
		}

		if i.Vrf != nil && e.VrfVerifier != nil {
			ok, vErr := e.VrfVerifier.Verify(i)
			if vErr != nil || !ok {
				current.Validity.Set(i.Id, false)
				current.ErrorMessages.Set(i.Id, "vrf verification failed")
				e.stage(sp, req.Contract, i, current)
				continue
			}
		}

		if e.OwnerVerifier != nil {
			if sig, hasSig := i.Tag(signatureTagName); hasSig {
				ok, vErr := e.OwnerVerifier.Verify(i.OwnerAddress, []byte(i.Id), []byte(sig))
				if vErr != nil || !ok {
					current.Validity.Set(i.Id, false)
					current.ErrorMessages.Set(i.Id, "signature verification failed")
					e.stage(sp, req.Contract, i, current)
					continue
				}
			}
		}

		rawInput, hasInput := i.Tag(inputTagName)
		if !hasInput || !json.Valid([]byte(rawInput)) {
			current.Validity.Set(i.Id, false)
			current.ErrorMessages.Set(i.Id, "missing or unparsable input tag")
			e.stage(sp, req.Contract, i, current)
			continue
		}

		writerId, isMarked := i.Tag(interactWriteTagName)
		var result sandbox.Result[json.RawMessage]
		if isMarked && writerId != "" && writerId != req.Contract {
			if !cfg.InternalWrites() {
				continue
			}
			childStack := append(append([]Frame{}, stack...), Frame{Contract: req.Contract, InteractionId: i.Id})
			_, _, evalErr := e.eval(ctx, Request{Contract: writerId, RequestedSortKey: i.SortKey, Config: cfg}, sp, childStack)
			if evalErr != nil {
				class := classify(evalErr)
				if class == apperrors.ClassNetwork || class == apperrors.ClassAbort || class == apperrors.ClassProtocol {
					return "", nil, evalErr
				}
				current.Validity.Set(i.Id, false)
				current.ErrorMessages.Set(i.Id, evalErr.Error())
				if stopsChainAfterEvolve(evalErr) {
					stopped = true
				}
				e.stage(sp, req.Contract, i, current)
				if stopped {
					break
				}
				continue
			}
			staged, ok, getErr := sp.Get(req.Contract, i.SortKey)
			if getErr != nil {
				return "", nil, getErr
			}
			if ok {
				valid, _ := staged.Validity.Get(writeValidityKey)
				if valid {
					current.State = staged.State
					current.Validity.Set(i.Id, true)
				} else {
					msg, _ := staged.ErrorMessages.Get(writeValidityKey)
					current.Validity.Set(i.Id, false)
					current.ErrorMessages.Set(i.Id, msg)
				}
			} else {
				current.Validity.Set(i.Id, false)
				current.ErrorMessages.Set(i.Id, "internal write did not materialize")
			}
			e.stage(sp, req.Contract, i, current)
			e.report(ctx, req.Contract, i, idx, len(missing))
			if cfg.CacheEveryNInteractions() > 0 && (idx+1)%int(cfg.CacheEveryNInteractions()) == 0 {
				if err := sp.Commit(i, false); err != nil {
					return "", nil, err
				}
			}
			continue
		}

		data := sandbox.InteractionData{Input: json.RawMessage(rawInput), Caller: i.OwnerAddress, Block: i.Block, InteractionId: i.Id, SortKey: i.SortKey}
		host := e.hostForInteraction(sp, stack, req.Contract, i, cfg)
		result = e.callWithTimeout(ctx, cfg, activeHandler, host, current, data)

		switch result.Kind {
		case sandbox.ResultOk:
			current.State = result.State
			current.Validity.Set(i.Id, true)
			if result.Event != nil {
				current.Events = append(current.Events, *result.Event)
				if e.Events != nil {
					e.Events.Emit(*result.Event)
				}
			}
		case sandbox.ResultError:
			current.Validity.Set(i.Id, false)
			current.ErrorMessages.Set(i.Id, result.ErrorMessage)
		case sandbox.ResultException:
			current.Validity.Set(i.Id, false)
			current.ErrorMessages.Set(i.Id, result.ErrorMessage)
			if !cfg.IgnoreExceptions() {
				return "", nil, apperrors.NewExceptionError(errors.New(result.ErrorMessage))
			}
		}

		// Step 10: evolve and any other registered modifier.
		for _, m := range e.Modifiers {
			newDef, mErr := m.Apply(ctx, req.Contract, activeDef, i, result)
			if mErr != nil {
				return "", nil, errors.Wrapf(mErr, "modifier on %s@%s", req.Contract, i.SortKey)
			}
			if newDef.SrcTxId != activeDef.SrcTxId {
				newHandler, cErr := e.Executor.Create(newDef, cfg)
				if cErr != nil {
					// A source that fails to compile keeps the previous
					// definition and handler active.
					continue
				}
				activeHandler = newHandler
			}
			activeDef = newDef
		}

		e.stage(sp, req.Contract, i, current)
		e.report(ctx, req.Contract, i, idx, len(missing))

		if e.Cache != nil && cfg.CacheEveryNInteractions() > 0 && (idx+1)%int(cfg.CacheEveryNInteractions()) == 0 {
			if err := sp.Commit(i, false); err != nil {
				return "", nil, err
			}
		}
		if e.Cache != nil && cfg.UpdateCacheForEachInteraction() {
			if err := sp.Commit(i, false); err != nil {
				return "", nil, err
			}
		}

		if stopped {
			break
		}
	}

	last := lastProcessed

	// Step 9: commit/rollback at the root of the call chain.
	if len(stack) == 0 {
		lastValid, _ := current.Validity.Get(last.Id)
		if lastValid {
			if err := sp.Commit(last, false); err != nil {
				return "", nil, err
			}
			if e.OnStateEvaluated != nil && last.Cacheable() {
				e.OnStateEvaluated(LastConfirmed{Contract: req.Contract, Interaction: last, Result: current.Clone()})
			}
		} else {
			sp.Rollback(last, false)
		}
	}

	return last.SortKey, current, nil
}

func (e *Evaluator) stage(sp *interactionstate.Scratchpad, contract string, i model.Interaction, result *model.EvalStateResult[json.RawMessage]) {
	sp.Update(contract, i.SortKey, result.Clone(), i.Cacheable())
}

func (e *Evaluator) report(ctx context.Context, contract string, i model.Interaction, idx, total int) {
	reporter := e.Progress
	if reporter == nil {
		reporter = progress.Noop
	}
	step := progress.Step{ContractTxId: contract, SortKey: i.SortKey, InteractionId: i.Id, Index: idx, Total: total}
	reporter.Report(step)
	if e.Logger != nil {
		e.Logger.Info("interaction applied", append(step.LogFields(), trace.LogFieldFrom(ctx))...)
	}
}

// callWithTimeout runs handler.Handle, converting a deadline overrun into
// an exception result rather than blocking the fold forever (spec.md §5
// "Timeouts").
func (e *Evaluator) callWithTimeout(ctx context.Context, cfg config.EvaluationConfig, handler sandbox.Handler[json.RawMessage], host sandbox.Host, current *model.EvalStateResult[json.RawMessage], data sandbox.InteractionData) sandbox.Result[json.RawMessage] {
	if e.Logger != nil {
		meter := log.NewMeter(e.Logger, "interaction-handle", log.InteractionId(data.InteractionId))
		defer meter.Done()
	}

	deadline := cfg.MaxInteractionEvaluationTime()
	if deadline <= 0 {
		return handler.Handle(ctx, host, current, data)
	}

	callCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	resultCh := make(chan sandbox.Result[json.RawMessage], 1)
	go func() {
		resultCh <- handler.Handle(callCtx, host, current, data)
	}()

	select {
	case result := <-resultCh:
		return result
	case <-callCtx.Done():
		return sandbox.Result[json.RawMessage]{Kind: sandbox.ResultException, State: current.State, ErrorMessage: "interaction evaluation timed out"}
	}
}

func (e *Evaluator) resolveHandler(ctx context.Context, contract string, cfg config.EvaluationConfig) (sandbox.Handler[json.RawMessage], model.ContractDefinition, error) {
	def, err := e.Definitions.Load(ctx, contract, "")
	if err != nil {
		return nil, model.ContractDefinition{}, err
	}
	handler, err := e.Executor.Create(def, cfg)
	if err != nil {
		return nil, model.ContractDefinition{}, err
	}
	return handler, def, nil
}

func (e *Evaluator) kvFor(contract string) *memKV {
	e.kvMu.Lock()
	defer e.kvMu.Unlock()
	if e.kv == nil {
		e.kv = map[string]*memKV{}
	}
	store, ok := e.kv[contract]
	if !ok {
		store = newMemKV()
		e.kv[contract] = store
	}
	return store
}

func (e *Evaluator) hostFor(sp *interactionstate.Scratchpad, stack []Frame, contract string, currentSortKey string, cfg config.EvaluationConfig) *hostImpl {
	return &hostImpl{ev: e, sp: sp, stack: stack, contract: contract, currentSortKey: currentSortKey, cfg: cfg, kv: e.kvFor(contract)}
}

func (e *Evaluator) hostForInteraction(sp *interactionstate.Scratchpad, stack []Frame, contract string, i model.Interaction, cfg config.EvaluationConfig) *hostImpl {
	h := e.hostFor(sp, stack, contract, i.SortKey, cfg)
	h.interactionId = i.Id
	return h
}

func classify(err error) apperrors.Class {
	var c apperrors.Classified
	if stderrors.As(err, &c) {
		return c.Classified()
	}
	return apperrors.ClassException
}

// stopsChainAfterEvolve reports whether err's class halts further
// progress at the next evolve boundary rather than merely invalidating
// the interaction that triggered it (spec.md §4.10).
func stopsChainAfterEvolve(err error) bool {
	var contractErr *apperrors.ContractError
	if stderrors.As(err, &contractErr) {
		return contractErr.StopsChainAfterEvolve()
	}
	var nonWhitelisted *apperrors.NonWhitelistedSourceError
	return stderrors.As(err, &nonWhitelisted)
}
