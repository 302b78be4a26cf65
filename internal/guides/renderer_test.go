package guides

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewRendererDefaults(t *testing.T) {
	t.Parallel()

	r := NewRenderer(RendererConfig{})
	t.Cleanup(r.Close)
	require.Equal(t, 60*time.Second, r.cfg.NavigationTimeout)
	require.Equal(t, 2*time.Second, r.cfg.SettleDelay)

	custom := NewRenderer(RendererConfig{NavigationTimeout: time.Second, SettleDelay: time.Millisecond})
	t.Cleanup(custom.Close)
	require.Equal(t, time.Second, custom.cfg.NavigationTimeout)
	require.Equal(t, time.Millisecond, custom.cfg.SettleDelay)
}
