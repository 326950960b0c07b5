package lifecycle

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	logging "github.com/ipfs/go-log/v2"
	"github.com/raulk/clock"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
	"golang.org/x/xerrors"

	"github.com/banyancomputer/banyan-client/metrics"
	"github.com/banyancomputer/banyan-client/models/repo"
	"github.com/banyancomputer/banyan-client/proposal"
	"github.com/banyancomputer/banyan-client/staging"
	"github.com/banyancomputer/banyan-client/types"
)

var log = logging.Logger("lifecycle")

//go:generate go run github.com/golang/mock/mockgen -destination=./mocks/mock_lifecycle.go -package=mocks . DealGateway,Stager,DealRecorder

// DealGateway is the chain side of an upload. *chain.Gateway satisfies it.
type DealGateway interface {
	Submit(ctx context.Context, p *types.DealProposal) (types.DealID, error)
	GetStatus(ctx context.Context, id types.DealID) (types.DealStatus, error)
}

// Stager uploads file content. *staging.Client satisfies it.
type Stager interface {
	Stage(ctx context.Context, up staging.Upload, onProgress staging.ProgressFunc) (*types.StagingResult, error)
}

// DealRecorder links a staged upload to its deal. *backend.Client satisfies it.
type DealRecorder interface {
	UpdateDealID(ctx context.Context, stagingID string, id types.DealID) (bool, error)
}

// Opener opens the content of a selected file for staging.
type Opener func(path string) (staging.Upload, io.Closer, error)

func openFile(path string) (staging.Upload, io.Closer, error) {
	up, f, err := staging.OpenUpload(path)
	if err != nil {
		return staging.Upload{}, nil, err
	}
	return up, f, nil
}

type Option func(*Lifecycle)

func WithClock(clk clock.Clock) Option {
	return func(l *Lifecycle) {
		if clk != nil {
			l.clock = clk
		}
	}
}

// WithUnitSize sets the size unit the per-unit rates of a DealConfiguration
// refer to. It must match the contract profile in use.
func WithUnitSize(unit uint64) Option {
	return func(l *Lifecycle) {
		l.builder = proposal.NewBuilder(unit)
	}
}

func WithOpener(open Opener) Option {
	return func(l *Lifecycle) {
		if open != nil {
			l.open = open
		}
	}
}

// Lifecycle moves upload entries through select, stage, submit and record.
// Every transition is saved to the entry repo before it is reported.
//
// At most one staging attempt and one submission run per entry at a time.
type Lifecycle struct {
	repo     repo.EntryRepo
	stager   Stager
	gateway  DealGateway
	recorder DealRecorder
	builder  proposal.Builder
	open     Opener
	clock    clock.Clock

	lk       sync.Mutex
	inFlight map[string]struct{}
}

func New(r repo.EntryRepo, stager Stager, gateway DealGateway, recorder DealRecorder, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		repo:     r,
		stager:   stager,
		gateway:  gateway,
		recorder: recorder,
		builder:  proposal.NewBuilder(proposal.TiB),
		open:     openFile,
		clock:    clock.New(),
		inFlight: map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Select registers the file at path and builds its unfinalized proposal.
func (l *Lifecycle) Select(ctx context.Context, cfg types.DealConfiguration, path string) (*types.Entry, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, xerrors.Errorf("%w: %v", types.ErrInvalidInput, err)
	}
	if fi.IsDir() {
		return nil, xerrors.Errorf("%w: %s is a directory", types.ErrInvalidInput, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return l.SelectFile(ctx, cfg, abs, types.FileInfo{Name: fi.Name(), Size: fi.Size()})
}

// SelectFile is Select for a file described by the caller.
func (l *Lifecycle) SelectFile(ctx context.Context, cfg types.DealConfiguration, path string, file types.FileInfo) (*types.Entry, error) {
	p, err := l.builder.Build(cfg, file)
	if err != nil {
		return nil, err
	}
	now := l.clock.Now()
	e := &types.Entry{
		ID:        uuid.New().String(),
		FilePath:  path,
		FileName:  file.Name,
		FileSize:  file.Size,
		State:     types.EntrySelected,
		Proposal:  *p,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.repo.SaveEntry(ctx, e); err != nil {
		return nil, xerrors.Errorf("save entry: %w", err)
	}
	recordTransition(ctx, e.State)
	log.Infow("file selected", "entry", e.ID, "file", e.FileName, "size", e.FileSize)
	return e.Clone(), nil
}

func (l *Lifecycle) Get(ctx context.Context, id string) (*types.Entry, error) {
	return l.repo.GetEntry(ctx, id)
}

// List returns all entries, oldest first.
func (l *Lifecycle) List(ctx context.Context) ([]*types.Entry, error) {
	return l.repo.ListEntries(ctx)
}

// GetByDealID finds the entry that created deal id.
func (l *Lifecycle) GetByDealID(ctx context.Context, id types.DealID) (*types.Entry, error) {
	return l.repo.GetEntryByDealID(ctx, id)
}

// begin loads the entry and, when check allows it, moves it to the in-flight
// state next and claims it. started is false when check declined without an
// error; the entry is then returned unchanged.
func (l *Lifecycle) begin(ctx context.Context, id string, next types.EntryState, check func(*types.Entry) (bool, error)) (e *types.Entry, started bool, err error) {
	l.lk.Lock()
	defer l.lk.Unlock()

	e, err = l.repo.GetEntry(ctx, id)
	if err != nil {
		return nil, false, err
	}
	ok, err := check(e)
	if err != nil || !ok {
		return e, false, err
	}

	prev := e.State
	e.State = next
	e.Message = ""
	e.UpdatedAt = l.clock.Now()
	if err := l.repo.SaveEntry(ctx, e); err != nil {
		e.State = prev
		return e, false, xerrors.Errorf("save entry: %w", err)
	}
	l.inFlight[id] = struct{}{}
	recordTransition(ctx, next)
	log.Infow("entry transition", "entry", id, "from", prev, "to", next)
	return e, true, nil
}

func (l *Lifecycle) finish(id string) {
	l.lk.Lock()
	delete(l.inFlight, id)
	l.lk.Unlock()
}

// transition saves e in state. cause, if any, is kept as the entry message
// and returned.
func (l *Lifecycle) transition(ctx context.Context, e *types.Entry, state types.EntryState, cause error) (*types.Entry, error) {
	if err := l.save(ctx, e, state, cause); err != nil {
		cause = multierror.Append(cause, err).ErrorOrNil()
	}
	return e.Clone(), cause
}

func (l *Lifecycle) save(ctx context.Context, e *types.Entry, state types.EntryState, cause error) error {
	prev := e.State
	e.State = state
	e.Message = ""
	if cause != nil {
		e.Message = cause.Error()
	}
	e.UpdatedAt = l.clock.Now()

	// the outcome of a remote call is kept even if the caller gave up
	if err := l.repo.SaveEntry(context.WithoutCancel(ctx), e); err != nil {
		log.Errorw("failed to save entry", "entry", e.ID, "state", state, "err", err)
		return xerrors.Errorf("save entry %s: %w", e.ID, err)
	}
	recordTransition(ctx, state)
	if cause != nil {
		log.Warnw("entry transition", "entry", e.ID, "from", prev, "to", state, "err", cause)
	} else {
		log.Infow("entry transition", "entry", e.ID, "from", prev, "to", state)
	}
	return nil
}

// Stage uploads the entry's file and finalizes its proposal. Entries that are
// not SELECTED or STAGE_FAILED are returned unchanged.
func (l *Lifecycle) Stage(ctx context.Context, id string, onProgress staging.ProgressFunc) (*types.Entry, error) {
	e, started, err := l.begin(ctx, id, types.EntryStaging, func(e *types.Entry) (bool, error) {
		return e.State == types.EntrySelected || e.State == types.EntryStageFailed, nil
	})
	if err != nil || !started {
		return e, err
	}
	defer l.finish(id)

	up, closer, err := l.open(e.FilePath)
	if err != nil {
		return l.transition(ctx, e, types.EntryStageFailed, err)
	}
	res, err := l.stager.Stage(ctx, up, onProgress)
	if cerr := closer.Close(); cerr != nil {
		log.Warnw("close staged file", "entry", id, "err", cerr)
	}
	if err != nil {
		return l.transition(ctx, e, types.EntryStageFailed, err)
	}

	p, err := proposal.FinalizeProposal(&e.Proposal, res.ContentID, res.IntegrityHash)
	if err != nil {
		return l.transition(ctx, e, types.EntryStageFailed, err)
	}
	e.Proposal = *p
	e.Staging = res
	return l.transition(ctx, e, types.EntryStaged, nil)
}

// Submit sends the finalized proposal to the contract. A submission whose
// outcome is unknown leaves the entry in SUBMIT_AMBIGUOUS, which is never
// submitted again.
func (l *Lifecycle) Submit(ctx context.Context, id string) (*types.Entry, error) {
	e, started, err := l.begin(ctx, id, types.EntrySubmitting, func(e *types.Entry) (bool, error) {
		switch e.State {
		case types.EntryStaged, types.EntrySubmitFailed:
			return true, nil
		case types.EntrySubmitted, types.EntryRecorded, types.EntryPersistFailed, types.EntrySubmitAmbiguous:
			return false, xerrors.Errorf("entry %s is %s: %w", e.ID, e.State, types.ErrAlreadySubmitted)
		case types.EntrySubmitting:
			return false, xerrors.Errorf("entry %s: %w", e.ID, types.ErrInFlight)
		default:
			return false, xerrors.Errorf("%w: entry %s is %s, stage it first", types.ErrInvalidInput, e.ID, e.State)
		}
	})
	if err != nil || !started {
		return e, err
	}
	defer l.finish(id)

	dealID, err := l.gateway.Submit(ctx, &e.Proposal)
	if err != nil {
		var (
			ambiguous *types.SubmissionAmbiguous
			rejected  *types.ChainRejected
		)
		switch {
		case errors.As(err, &ambiguous):
			e.TxHash = ambiguous.TxHash
			return l.transition(ctx, e, types.EntrySubmitAmbiguous, err)
		case errors.As(err, &rejected):
			e.TxHash = rejected.TxHash
		}
		return l.transition(ctx, e, types.EntrySubmitFailed, err)
	}
	e.DealID = dealID
	return l.transition(ctx, e, types.EntrySubmitted, nil)
}

// ErrNotConfirmed is kept as the entry message when the backend accepts the
// deal id without echoing it back.
var ErrNotConfirmed = errors.New("backend did not confirm the deal id")

// Record stores the (staging id, deal id) pair with the backend. A failure
// leaves the entry in PERSIST_FAILED; the on-chain deal is not affected. An
// unconfirmed write is reported through the entry state only.
func (l *Lifecycle) Record(ctx context.Context, id string) (*types.Entry, error) {
	l.lk.Lock()
	if _, ok := l.inFlight[id]; ok {
		l.lk.Unlock()
		return nil, xerrors.Errorf("entry %s: %w", id, types.ErrInFlight)
	}
	e, err := l.repo.GetEntry(ctx, id)
	if err != nil {
		l.lk.Unlock()
		return nil, err
	}
	switch e.State {
	case types.EntrySubmitted, types.EntryPersistFailed:
	case types.EntryRecorded:
		l.lk.Unlock()
		return e, nil
	default:
		l.lk.Unlock()
		return e, xerrors.Errorf("%w: entry %s is %s, no deal to record", types.ErrInvalidInput, id, e.State)
	}
	l.inFlight[id] = struct{}{}
	l.lk.Unlock()
	defer l.finish(id)

	if e.Staging == nil || e.Staging.StagingID == "" {
		return l.transition(ctx, e, types.EntryPersistFailed, xerrors.Errorf("%w: entry %s has no staging id", types.ErrInvalidInput, id))
	}
	recorded, err := l.recorder.UpdateDealID(ctx, e.Staging.StagingID, e.DealID)
	if err != nil {
		return l.transition(ctx, e, types.EntryPersistFailed, err)
	}
	if !recorded {
		// a soft failure: only a failed save is reported
		if err := l.save(ctx, e, types.EntryPersistFailed, ErrNotConfirmed); err != nil {
			return e.Clone(), err
		}
		return e.Clone(), nil
	}
	return l.transition(ctx, e, types.EntryRecorded, nil)
}

// Run drives the entry from its current state to RECORDED, stopping at the
// first failed step.
func (l *Lifecycle) Run(ctx context.Context, id string, onProgress staging.ProgressFunc) (*types.Entry, error) {
	e, err := l.repo.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	for {
		prev := e.State
		switch e.State {
		case types.EntrySelected, types.EntryStageFailed:
			e, err = l.Stage(ctx, id, onProgress)
		case types.EntryStaged, types.EntrySubmitFailed:
			e, err = l.Submit(ctx, id)
		case types.EntrySubmitted, types.EntryPersistFailed:
			e, err = l.Record(ctx, id)
			if err == nil && e.State == types.EntryPersistFailed {
				return e, nil
			}
		case types.EntryRecorded:
			return e, nil
		case types.EntrySubmitAmbiguous:
			return e, xerrors.Errorf("entry %s: %w: check transaction %s", id, types.ErrSubmissionAmbiguous, e.TxHash)
		default:
			return e, xerrors.Errorf("entry %s: %w", id, types.ErrInFlight)
		}
		if err != nil {
			return e, err
		}
		if e.State == prev {
			return e, xerrors.Errorf("entry %s: %w", id, types.ErrInFlight)
		}
	}
}

// Resolve settles a SUBMIT_AMBIGUOUS entry once the user has found the deal
// id on chain.
func (l *Lifecycle) Resolve(ctx context.Context, id string, dealID types.DealID) (*types.Entry, error) {
	if dealID == 0 {
		return nil, xerrors.Errorf("%w: deal id 0", types.ErrInvalidInput)
	}
	l.lk.Lock()
	defer l.lk.Unlock()

	e, err := l.repo.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.State != types.EntrySubmitAmbiguous {
		return e, xerrors.Errorf("%w: entry %s is %s", types.ErrInvalidInput, id, e.State)
	}
	e.DealID = dealID
	return l.transition(ctx, e, types.EntrySubmitted, nil)
}

// Remove deletes an entry unless a remote call for it is pending.
func (l *Lifecycle) Remove(ctx context.Context, id string) error {
	l.lk.Lock()
	defer l.lk.Unlock()

	if _, ok := l.inFlight[id]; ok {
		return xerrors.Errorf("entry %s: %w", id, types.ErrInFlight)
	}
	e, err := l.repo.GetEntry(ctx, id)
	if err != nil {
		return err
	}
	if e.State.InFlight() {
		return xerrors.Errorf("entry %s is %s: %w", id, e.State, types.ErrInFlight)
	}
	if err := l.repo.DeleteEntry(ctx, id); err != nil {
		return err
	}
	log.Infow("entry removed", "entry", id, "state", e.State)
	return nil
}

// Recover settles entries left in flight by a previous process. An
// interrupted upload can be staged again; an interrupted submission may have
// reached the chain and becomes SUBMIT_AMBIGUOUS.
func (l *Lifecycle) Recover(ctx context.Context) (int, error) {
	entries, err := l.repo.ListEntries(ctx)
	if err != nil {
		return 0, err
	}

	l.lk.Lock()
	defer l.lk.Unlock()

	var (
		n    int
		merr *multierror.Error
	)
	for _, e := range entries {
		if _, ok := l.inFlight[e.ID]; ok {
			continue
		}
		var err error
		switch e.State {
		case types.EntryStaging:
			err = l.save(ctx, e, types.EntryStageFailed, xerrors.New("interrupted while staging"))
		case types.EntrySubmitting:
			err = l.save(ctx, e, types.EntrySubmitAmbiguous, xerrors.New("interrupted while submitting"))
		default:
			continue
		}
		if err != nil {
			merr = multierror.Append(merr, err)
			continue
		}
		n++
	}
	return n, merr.ErrorOrNil()
}

func recordTransition(ctx context.Context, state types.EntryState) {
	_ = stats.RecordWithTags(ctx, []tag.Mutator{
		tag.Upsert(metrics.StateTag, state.String()),
	}, metrics.EntryTransitionCount.M(1))
}
