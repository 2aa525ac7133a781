package bootstrap

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corrreia/napigo/pkg/napi"
	"github.com/corrreia/napigo/pkg/napi/napitest"
	"github.com/corrreia/napigo/pkg/registry"
)

func answer(env napi.Env, info napi.CallbackInfo) napi.Value {
	return napi.Invoke(env, info, 0, func(c *napi.Call) napi.Value {
		return napi.Return(c, napi.Float64, 42.0)
	})
}

func init() {
	registry.Register("answer", answer)
}

func setup(t *testing.T) *napitest.Host {
	t.Helper()
	reset()
	t.Cleanup(reset)
	return napitest.Install(t)
}

func TestInstallOnce(t *testing.T) {
	h := setup(t)

	assert.Equal(t, Unregistered, CurrentState())
	require.NoError(t, Install("example"))
	assert.Equal(t, Registered, CurrentState())

	err := Install("example")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	err = Install("other")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	mods := h.Modules()
	require.Len(t, mods, 1)
	assert.Equal(t, "example", mods[0].Name)
	assert.Equal(t, int32(ModuleVersion), mods[0].Version)
	assert.Equal(t, 1, h.Calls(napi.OpModuleRegister))
}

func TestInstallConcurrent(t *testing.T) {
	h := setup(t)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if Install("example") == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Len(t, h.Modules(), 1)
}

func TestInstallEmptyName(t *testing.T) {
	setup(t)
	assert.ErrorIs(t, Install(""), ErrEmptyName)
	assert.Equal(t, Unregistered, CurrentState())
}

func TestInstallHostRejects(t *testing.T) {
	h := setup(t)
	h.FailOn(napi.OpModuleRegister, napi.StatusGenericFailure)

	err := Install("example")
	require.Error(t, err)
	assert.Equal(t, napi.StatusGenericFailure, napi.StatusOf(err))
	assert.Equal(t, Unregistered, CurrentState())
}

func TestInstallNoHost(t *testing.T) {
	setup(t)
	napi.SetHost(nil)

	assert.True(t, errors.Is(Install("example"), napi.ErrNoHost))
	assert.Equal(t, Unregistered, CurrentState())
}

func TestLoadExposesBindings(t *testing.T) {
	h := setup(t)
	require.NoError(t, Install("example"))

	exports, err := h.Load()
	require.NoError(t, err)

	res, err := h.Call(h.Property(exports, "answer"))
	require.NoError(t, err)
	got, _ := h.NumberOf(res)
	assert.Equal(t, 42.0, got)
}

func TestRegisterExportsFailureThrows(t *testing.T) {
	h := setup(t)
	h.FailOn(napi.OpCreateFunction, napi.StatusGenericFailure)
	require.NoError(t, Install("example"))

	exports, err := h.Load()
	assert.Zero(t, exports)

	var exc *napitest.Exception
	require.True(t, errors.As(err, &exc))
	assert.Equal(t, "NAPIGO_STATUS", exc.Code)
	assert.Contains(t, exc.Message, `export "answer"`)
}

// panickyHost panics while creating functions.
type panickyHost struct {
	*napitest.Host
}

func (panickyHost) CreateFunction(napi.Env, string, napi.Callback) (napi.Value, error) {
	panic("host exploded")
}

func TestRegisterExportsRecoversPanic(t *testing.T) {
	h := setup(t)
	napi.SetHost(panickyHost{h})
	require.NoError(t, Install("example"))

	exports, err := h.Load()
	assert.Zero(t, exports)

	var exc *napitest.Exception
	require.True(t, errors.As(err, &exc))
	assert.Equal(t, "NAPIGO_PANIC", exc.Code)
	assert.Equal(t, "host exploded", exc.Message)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "registered", Registered.String())
	assert.Equal(t, "unregistered", Unregistered.String())
}
