package napi_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/corrreia/napigo/pkg/napi"
)

func TestSetLogger(t *testing.T) {
	t.Cleanup(func() { napi.SetLogger(nil) })

	core, logs := observer.New(zapcore.DebugLevel)
	napi.SetLogger(zap.New(core))
	napi.Logger().Info("hello")
	assert.Equal(t, 1, logs.FilterMessage("hello").Len())

	napi.SetLogger(nil)
	assert.NotNil(t, napi.Logger())
	napi.Logger().Info("dropped")
	assert.Equal(t, 0, logs.FilterMessage("dropped").Len())
}

// Run with -race: host threads read the logger while it is replaced.
func TestLoggerConcurrentAccess(t *testing.T) {
	t.Cleanup(func() { napi.SetLogger(nil) })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			napi.SetLogger(zap.NewNop())
		}()
		go func() {
			defer wg.Done()
			napi.Logger().Debug("tick")
		}()
	}
	wg.Wait()
	assert.NotNil(t, napi.Logger())
}
