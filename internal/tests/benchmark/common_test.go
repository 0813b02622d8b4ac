package benchmark

import (
	"fmt"
	"io"
	"runtime"
	"sync/atomic"
	"testing"

	"golang.org/x/crypto/openpgp"

	"github.com/yndnr/pgpauth-go/internal/core/service"
	"github.com/yndnr/pgpauth-go/internal/keystore"
	"github.com/yndnr/pgpauth-go/internal/keystore/keystoretest"
	"github.com/yndnr/pgpauth-go/internal/telemetry/logger"
)

// keyCounts are the keyring sizes used by verification benchmarks.
var keyCounts = []int{1, 10, 50}

func quietLogger(b *testing.B) logger.Logger {
	b.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: io.Discard})
	if err != nil {
		b.Fatalf("logger.New() error = %v", err)
	}
	return log
}

// newSigners generates n throwaway keys and returns the entities with a
// signer for the first one.
func newSigners(b *testing.B, n int) (openpgp.EntityList, *keystore.Signer) {
	b.Helper()
	entities := make(openpgp.EntityList, n)
	for i := range entities {
		entities[i] = keystoretest.NewEntity(b, fmt.Sprintf("Bench %d", i), fmt.Sprintf("bench%d@example.com", i))
	}
	return entities, keystore.NewSigner(entities[0], nil)
}

// sequentialNonce never repeats within a process.
func sequentialNonce() func() (uint64, error) {
	var n atomic.Uint64
	return func() (uint64, error) {
		return n.Add(1), nil
	}
}

func newIssuer() *service.TokenIssuer {
	cfg := service.DefaultTokenIssuerConfig()
	cfg.Nonce = sequentialNonce()
	return service.NewTokenIssuer(nil, cfg)
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithKeyCounts runs a benchmark function with various keyring sizes.
func runWithKeyCounts(b *testing.B, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("keys_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
