package main

import (
	"bytes"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/iov-one/trustd/app"
	"github.com/iov-one/trustd/commands/server"
	"github.com/iov-one/trustd/errors"
	"github.com/iov-one/trustd/weavetest"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

func TestInitAndGenerateApp(t *testing.T) {
	home, err := ioutil.TempDir("", "trustd-main")
	require.NoError(t, err)
	defer os.RemoveAll(home)

	viper.Set(server.FlagHome, home)
	viper.Set(server.FlagChainID, "trust-main")
	viper.Set(flagArbitrator, weavetest.NewCondition().Address().String())
	viper.Set(flagFeeCollector, weavetest.NewCondition().Address().String())
	viper.Set(flagFeePercent, 2)
	viper.Set(flagKafkaBrokers, nil)

	initCmd := server.InitCmd(genInitOptions, log.NewNopLogger())
	require.NoError(t, initCmd.RunE(initCmd, nil))

	h, cleanup, err := generateApp(home, log.NewNopLogger())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/stats", nil))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"total_trusts": 0`)
	cleanup()

	// the state survives a restart
	h, cleanup, err = generateApp(home, log.NewNopLogger())
	require.NoError(t, err)
	defer cleanup()
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGenInitOptionsRequiresAddresses(t *testing.T) {
	viper.Set(flagArbitrator, "")
	viper.Set(flagFeeCollector, "")
	_, err := genInitOptions(nil)
	assert.Error(t, err)
}

func TestExportAfterInit(t *testing.T) {
	home, err := ioutil.TempDir("", "trustd-export")
	require.NoError(t, err)
	defer os.RemoveAll(home)

	var out bytes.Buffer
	err = export(home, &out)
	assert.True(t, errors.ErrNotFound.Is(err))

	viper.Set(server.FlagHome, home)
	viper.Set(server.FlagChainID, "trust-export")
	viper.Set(flagArbitrator, weavetest.NewCondition().Address().String())
	viper.Set(flagFeeCollector, weavetest.NewCondition().Address().String())
	viper.Set(flagKafkaBrokers, nil)
	initCmd := server.InitCmd(genInitOptions, log.NewNopLogger())
	require.NoError(t, initCmd.RunE(initCmd, nil))

	_, cleanup, err := generateApp(home, log.NewNopLogger())
	require.NoError(t, err)
	cleanup()

	require.NoError(t, export(home, &out))
	assert.Contains(t, out.String(), `"chain_id": "trust-export"`)
}

func TestPrintAddresses(t *testing.T) {
	cond := weavetest.NewCondition()
	var out bytes.Buffer
	require.NoError(t, printAddresses(&out, []string{cond.String(), cond.Address().String()}))

	b32, err := cond.Address().Bech32()
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out.String(), "\n"))
	assert.Equal(t, 2, strings.Count(out.String(), b32))

	assert.Error(t, printAddresses(&out, []string{"nonsense"}))
}

func TestGenerateAppReleasesSinkOnFailure(t *testing.T) {
	home, err := ioutil.TempDir("", "trustd-locked")
	require.NoError(t, err)
	defer os.RemoveAll(home)

	viper.Set(server.FlagHome, home)
	viper.Set(server.FlagChainID, "trust-locked")
	viper.Set(flagArbitrator, weavetest.NewCondition().Address().String())
	viper.Set(flagFeeCollector, weavetest.NewCondition().Address().String())
	viper.Set(flagKafkaBrokers, nil)
	initCmd := server.InitCmd(genInitOptions, log.NewNopLogger())
	require.NoError(t, initCmd.RunE(initCmd, nil))

	// the first instance holds the database
	_, cleanup, err := generateApp(home, log.NewNopLogger())
	require.NoError(t, err)
	defer cleanup()

	closed := false
	defer func(orig func([]string, string, string, log.Logger) (app.EventSink, func(), error)) {
		dialSink = orig
		viper.Set(flagKafkaBrokers, nil)
	}(dialSink)
	dialSink = func([]string, string, string, log.Logger) (app.EventSink, func(), error) {
		return app.NewLogSink(log.NewNopLogger()), func() { closed = true }, nil
	}
	viper.Set(flagKafkaBrokers, []string{"localhost:9092"})

	_, _, err = generateApp(home, log.NewNopLogger())
	assert.Error(t, err)
	assert.True(t, closed, "sink must be closed when the node cannot open")
}
