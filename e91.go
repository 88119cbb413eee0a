// Package e91 simulates an entanglement-based (E91-style) quantum key
// distribution protocol: correlated measurement of entangled pairs,
// public sifting of basis choices, error-rate estimation against an
// analytically derived tolerance, and derivation of a fixed-length key
// from accepted runs.
package e91

import (
	"errors"
	"fmt"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"e91/bitstring"
	"e91/epr"
)

var (
	DefaultKeyBytes             = 16
	DefaultReconciliationFactor = 1.1
)

var (
	// ErrInvalidParameter reports nonsensical session options. Fatal; a
	// retry with the same options cannot succeed.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInsufficientKeyMaterial reports an accepted run whose sifted
	// sequence is too short for the requested key length. Recoverable:
	// re-run the whole protocol with more rounds. Sifted material is
	// never carried across attempts.
	ErrInsufficientKeyMaterial = errors.New("insufficient key material")
)

// An Opts packages together the arguments necessary to construct a new
// Session.
type Opts struct {
	// Rounds is the number of entangled pairs to measure per run. Zero
	// is legal and yields a rejected run with an empty sift.
	Rounds int

	// KeyBytes is the length of the derived key in bytes. Defaults to
	// DefaultKeyBytes.
	KeyBytes int

	// ReconciliationFactor is the inefficiency factor f >= 1 of the
	// classical error-correction step, which fixes the maximum
	// tolerable error rate. Defaults to DefaultReconciliationFactor.
	ReconciliationFactor float64

	// Eavesdropper, if set, routes every pair through an
	// intercept-resend attacker.
	Eavesdropper bool

	// Workers bounds the number of goroutines measuring pairs
	// concurrently. Values below 2 select the serial path.
	Workers int

	// Rand provides the randomness for basis choices and outcome
	// sampling. pRNG is fine here: this drives a simulation, not key
	// material on a real channel. Must be non-nil.
	Rand *rand.Rand
}

// A Session executes full protocol passes for one fixed
// parameterization. The tolerable-error threshold is solved once at
// construction and reused across runs.
type Session struct {
	rounds    int
	keyBytes  int
	eavesdrop bool
	workers   int
	threshold float64
	rand      *rand.Rand

	sourceFunc func(*rand.Rand) epr.Source
}

// A Result reports the outcome of one protocol pass.
type Result struct {
	// QBER is the observed error rate over the sifted sequence, 0 when
	// nothing was sifted.
	QBER float64

	// Threshold is the maximum tolerable QBER for the session's
	// reconciliation factor.
	Threshold float64

	SiftedLength int
	Mismatches   int

	// Accepted reports whether the run passed the security decision. A
	// rejected run is a protocol outcome, not an error, and yields no
	// key.
	Accepted bool

	// Key holds the derived key bytes. Nil unless Accepted.
	Key []byte
}

// NewSession returns a new Session, configured in accordance with opts,
// or an error if the options are nonsensical.
func NewSession(opts Opts) (*Session, error) {
	if opts.Rounds < 0 {
		return nil, fmt.Errorf("%w: rounds must be non-negative, got %d", ErrInvalidParameter, opts.Rounds)
	}
	if opts.KeyBytes < 0 {
		return nil, fmt.Errorf("%w: key length must be non-negative, got %d", ErrInvalidParameter, opts.KeyBytes)
	}
	if opts.Rand == nil {
		return nil, fmt.Errorf("%w: must provide Rand", ErrInvalidParameter)
	}
	keyBytes := opts.KeyBytes
	if keyBytes == 0 {
		keyBytes = DefaultKeyBytes
	}
	f := opts.ReconciliationFactor
	if f == 0 {
		f = DefaultReconciliationFactor
	}
	threshold, err := MaxTolerableQBER(f)
	if err != nil {
		return nil, err
	}
	return &Session{
		rounds:    opts.Rounds,
		keyBytes:  keyBytes,
		eavesdrop: opts.Eavesdropper,
		workers:   opts.Workers,
		threshold: threshold,
		rand:      opts.Rand,
	}, nil
}

// Run performs one full protocol pass: measure, sift, estimate, decide,
// and, on acceptance, derive a key. Rejection is reported through
// Result.Accepted, not through the error.
func (s *Session) Run() (Result, error) {
	tr, err := s.collect()
	if err != nil {
		return Result{}, err
	}
	sifted := sift(tr)
	report := estimateQBER(sifted)
	res := Result{
		QBER:         report.qber,
		Threshold:    s.threshold,
		SiftedLength: report.sifted,
		Mismatches:   report.mismatches,
	}
	// An empty sift is always a rejection, regardless of its zero error
	// rate.
	if report.sifted == 0 || report.qber > s.threshold {
		return res, nil
	}
	key, err := DeriveKey(sifted.alice, s.keyBytes)
	if err != nil {
		return res, err
	}
	res.Accepted = true
	res.Key = key
	return res, nil
}

// Run executes one protocol pass with default key length and serial
// measurement, for callers that only care about the security decision.
func Run(rounds int, eavesdropper bool, f float64, r *rand.Rand) (Result, error) {
	s, err := NewSession(Opts{
		Rounds:               rounds,
		Eavesdropper:         eavesdropper,
		ReconciliationFactor: f,
		Rand:                 r,
	})
	if err != nil {
		return Result{}, err
	}
	return s.Run()
}

// A transcript holds the per-round record of one measurement pass:
// basis choices and packed outcome bits, in round order.
type transcript struct {
	aliceBases []epr.Basis
	bobBases   []epr.Basis
	aliceBits  bitstring.Dense
	bobBits    bitstring.Dense
}

func (s *Session) collect() (transcript, error) {
	n := s.rounds
	aliceBases := epr.ChooseBases(s.rand, n)
	bobBases := epr.ChooseBases(s.rand, n)
	aliceBits := make([]bool, n)
	bobBits := make([]bool, n)

	if s.workers > 1 && n > 0 {
		if err := s.measureParallel(aliceBases, bobBases, aliceBits, bobBits); err != nil {
			return transcript{}, err
		}
	} else {
		src := s.newSource(s.rand)
		for i := 0; i < n; i++ {
			a, b, err := src.Measure(aliceBases[i], bobBases[i])
			if err != nil {
				return transcript{}, fmt.Errorf("measuring pair %d: %w", i, err)
			}
			aliceBits[i], bobBits[i] = a, b
		}
	}
	return transcript{
		aliceBases: aliceBases,
		bobBases:   bobBases,
		aliceBits:  packBits(aliceBits),
		bobBits:    packBits(bobBits),
	}, nil
}

// measureParallel evaluates rounds in contiguous chunks, one goroutine
// per chunk. Every worker owns a private source seeded from the session
// generator before launch, and writes only its own slots, so no state
// is shared across goroutines. Results stay in round order.
func (s *Session) measureParallel(aliceBases, bobBases []epr.Basis, aliceBits, bobBits []bool) error {
	n := len(aliceBases)
	workers := s.workers
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			break
		}
		src := s.newSource(rand.New(rand.NewSource(s.rand.Int63())))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				a, b, err := src.Measure(aliceBases[i], bobBases[i])
				if err != nil {
					return fmt.Errorf("measuring pair %d: %w", i, err)
				}
				aliceBits[i], bobBits[i] = a, b
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *Session) newSource(r *rand.Rand) epr.Source {
	mk := s.sourceFunc
	if mk == nil {
		mk = func(r *rand.Rand) epr.Source { return epr.NewPairSource(r) }
	}
	src := mk(r)
	if s.eavesdrop {
		src = epr.NewInterceptor(src, r)
	}
	return src
}

func packBits(bits []bool) bitstring.Dense {
	var d bitstring.Dense
	for _, b := range bits {
		d.AppendBit(b)
	}
	return d
}
