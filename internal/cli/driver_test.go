package cli_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gungnir/internal/cli"
	"gungnir/internal/engine"
	"gungnir/internal/gateway"
)

func runScript(t *testing.T, script string) (stdout, stderr string) {
	t.Helper()

	driver := cli.NewDriver(gateway.New(), engine.New())
	var out, errOut bytes.Buffer
	err := driver.Run(context.Background(), strings.NewReader(script), &out, &errOut)
	require.NoError(t, err)
	return out.String(), errOut.String()
}

func TestRun_SimpleCross(t *testing.T) {
	stdout, stderr := runScript(t, "SELL LIMIT 100 10\nBUY LIMIT 100 10\n")

	assert.Equal(t, "TRADE price=100 qty=10 buy_id=2 sell_id=1\n", stdout)
	assert.Empty(t, stderr)
}

func TestRun_MarketWalksTheBook(t *testing.T) {
	stdout, _ := runScript(t,
		"SELL LIMIT 100 5\nSELL LIMIT 101 5\nBUY MARKET 8\n")

	assert.Equal(t,
		"TRADE price=100 qty=5 buy_id=3 sell_id=1\n"+
			"TRADE price=101 qty=3 buy_id=3 sell_id=2\n",
		stdout)
}

func TestRun_BlankLinesIgnored(t *testing.T) {
	stdout, stderr := runScript(t, "\n\nSELL LIMIT 100 10\n\nBUY LIMIT 100 10\n\n")

	assert.Equal(t, "TRADE price=100 qty=10 buy_id=2 sell_id=1\n", stdout)
	assert.Empty(t, stderr)
}

func TestRun_ParseErrorsGoToErrorStream(t *testing.T) {
	stdout, stderr := runScript(t, "HOLD EVERYTHING\nSELL LIMIT 100 10\n")

	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "parse error:")
	assert.Contains(t, stderr, "unknown command")
}

func TestRun_RejectsGoToErrorStream(t *testing.T) {
	stdout, stderr := runScript(t, "BUY LIMIT 100 0\nCANCEL 9\n")

	assert.Empty(t, stdout)
	assert.Equal(t,
		"REJECT: quantity must be > 0\n"+
			"REJECT: order not found\n",
		stderr)
}

func TestRun_CancelThenRefill(t *testing.T) {
	// Scenario S6: cancelled bid must not trade against the later sell.
	stdout, stderr := runScript(t,
		"BUY LIMIT 99 5\nCANCEL 1\nSELL LIMIT 99 5\n")

	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
}
