// e91sim runs end-to-end scenarios of the E91 simulation: repeated
// protocol passes with or without an intercept-resend attacker,
// summary statistics over the observed error rates, and an AEAD round
// trip under the derived key of accepted runs.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
	"gonum.org/v1/gonum/stat"

	"e91"
	"e91/internal/crypto"
)

var (
	rounds   = flag.Int("rounds", 2048, "entangled pairs to measure per run")
	runs     = flag.Int("runs", 1, "independent protocol runs to execute")
	f        = flag.Float64("f", e91.DefaultReconciliationFactor, "reconciliation inefficiency factor")
	keyBytes = flag.Int("key-bytes", crypto.KeyBytes, "derived key length in bytes")
	workers  = flag.Int("workers", 1, "concurrent measurement workers")
	seed     = flag.Int64("seed", 0, "simulation pRNG seed (0 seeds from the clock)")
	eve      = flag.Bool("eve", false, "route every pair through an intercept-resend attacker")
	message  = flag.String("message", "attack at dawn", "plaintext for the AEAD round trip on accepted runs")
)

func main() {
	flag.Parse()
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	session, err := e91.NewSession(e91.Opts{
		Rounds:               *rounds,
		KeyBytes:             *keyBytes,
		ReconciliationFactor: *f,
		Eavesdropper:         *eve,
		Workers:              *workers,
		Rand:                 rand.New(rand.NewSource(*seed)),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("building session")
	}
	log.Info().
		Int("rounds", *rounds).
		Bool("eve", *eve).
		Float64("f", *f).
		Int64("seed", *seed).
		Msg("starting scenario")

	var qbers []float64
	accepted := 0
	for i := 0; i < *runs; i++ {
		res, err := session.Run()
		if errors.Is(err, e91.ErrInsufficientKeyMaterial) {
			// The run sifted and estimated fine, so its error rate still
			// belongs in the summary; only the key step is skipped.
			qbers = append(qbers, res.QBER)
			log.Warn().Err(err).Int("sifted", res.SiftedLength).
				Msg("not enough sifted bits, increase --rounds")
			continue
		}
		if err != nil {
			log.Fatal().Err(err).Msg("running protocol")
		}
		qbers = append(qbers, res.QBER)
		if !res.Accepted {
			log.Info().
				Float64("qber", res.QBER).
				Float64("threshold", res.Threshold).
				Int("sifted", res.SiftedLength).
				Msg("run rejected")
			continue
		}
		accepted++
		log.Info().
			Float64("qber", res.QBER).
			Float64("threshold", res.Threshold).
			Int("sifted", res.SiftedLength).
			Int("key_bytes", len(res.Key)).
			Msg("run accepted")
		if len(res.Key) == crypto.KeyBytes {
			if err := roundTrip(log, res.Key, []byte(*message)); err != nil {
				log.Fatal().Err(err).Msg("AEAD round trip")
			}
		}
		crypto.Zero(res.Key)
	}

	if len(qbers) > 0 {
		ev := log.Info().
			Int("runs", *runs).
			Int("accepted", accepted).
			Float64("mean_qber", stat.Mean(qbers, nil))
		if len(qbers) > 1 {
			ev = ev.Float64("stddev_qber", stat.StdDev(qbers, nil))
		}
		ev.Msg("scenario complete")
	}
}

func roundTrip(log zerolog.Logger, key, plaintext []byte) error {
	ciphertext, err := crypto.Encrypt(key, plaintext)
	if err != nil {
		return err
	}
	decrypted, err := crypto.Decrypt(key, ciphertext)
	if err != nil {
		return err
	}
	if !bytes.Equal(decrypted, plaintext) {
		return fmt.Errorf("round trip produced different plaintext")
	}
	log.Info().Int("ciphertext_bytes", len(ciphertext)).Msg("AEAD round trip ok")
	return nil
}
