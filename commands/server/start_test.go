package server

import (
	"context"
	"fmt"
	"io/ioutil"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().String()
}

func TestStartServesUntilCancelled(t *testing.T) {
	defer setupViper(t)()

	addr := freeAddr(t)
	viper.Set(FlagBind, addr)

	var closed bool
	gen := func(home string, logger log.Logger) (http.Handler, func(), error) {
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "pong")
		})
		return h, func() { closed = true }, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Start(ctx, gen, log.NewNopLogger()) }()

	var body []byte
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get("http://" + addr + "/")
		if err == nil {
			body, err = ioutil.ReadAll(resp.Body)
			resp.Body.Close()
			require.NoError(t, err)
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	assert.Equal(t, "pong", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.True(t, closed)
}

func TestServeReportsListenFailure(t *testing.T) {
	err := Serve(context.Background(), "not-an-address", http.NotFoundHandler(), log.NewNopLogger())
	assert.Error(t, err)
}
