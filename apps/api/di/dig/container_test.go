package dig_container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/examprep/core"
)

func TestNew_Loggers(t *testing.T) {
	c := New()

	err := c.Invoke(func(conf *core.Config, logger core.Logger, dbLogger DBLoggerParam) {
		assert.NotNil(t, conf)
		assert.NotNil(t, logger)
		assert.NotNil(t, dbLogger.Logger)
		assert.NotSame(t, logger, dbLogger.Logger)
	})
	require.NoError(t, err)
}
