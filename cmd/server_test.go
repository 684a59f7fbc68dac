package cmd

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"syscall"
	"testing"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerCmd(t *testing.T) {
	_, a, port := newApp(t, nil)
	defer a.shutdown()

	go a.run()
	waitForHTTP(port)

	status, _ := getBody(t, fmt.Sprintf("http://localhost:%d/ping", port))
	assert.Equal(t, 200, status)

	// Без синхронизации каталог пустой.
	status, json := getBody(t, fmt.Sprintf("http://localhost:%d/api/recipes", port))
	assert.Equal(t, 200, status)
	assert.Contains(t, json, `"total":0`)

	status, _ = getBody(t, fmt.Sprintf("http://localhost:%d/api/calendar?month=2025-11", port))
	assert.Equal(t, 200, status)
}

func TestServerCmd_syncOnStart(t *testing.T) {
	_, a, port := newApp(t, func(cmd *Server) {
		cmd.SyncOnStart = true
		cmd.Source.File = "testdata/recipes.yml"
	})
	defer a.shutdown()

	go a.run()
	waitForHTTP(port)
	waitForRecipe(t, port, 100)

	// Из файла.
	status, json := getBody(t, fmt.Sprintf("http://localhost:%d/api/recipes/100", port))
	assert.Equal(t, 200, status)
	assert.Contains(t, json, `"title":"Family Lasagna"`)

	// Стартовый рецепт, название переопределено файлом.
	status, json = getBody(t, fmt.Sprintf("http://localhost:%d/api/recipes/1", port))
	assert.Equal(t, 200, status)
	assert.Contains(t, json, `"title":"Grandma's Oats"`)
	assert.Contains(t, json, `"meal_type":"breakfast"`)
}

func TestServerCmd_autoSync(t *testing.T) {
	_, a, port := newApp(t, func(cmd *Server) {
		cmd.SyncAt = time.Now().Add(2 * time.Second).Format("15:04:05")
	})
	defer a.shutdown()

	go a.run()
	waitForHTTP(port)

	status, _ := getBody(t, fmt.Sprintf("http://localhost:%d/api/recipes/1", port))
	assert.Equal(t, 404, status)

	waitForRecipe(t, port, 1)
}

const siteIndex = `<html><body>
<a data-recipe-id="500" href="/recipes/500">Tomato Soup</a>
</body></html>`

const sitePage = `<html><head><script type="application/ld+json">
{"@type": "Recipe", "name": "Tomato Soup", "recipeCategory": "Soup", "totalTime": "PT35M", "recipeYield": "4"}
</script></head><body></body></html>`

func TestServerCmd_parser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/recipes/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(siteIndex))
	})
	mux.HandleFunc("/recipes/500", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sitePage))
	})
	site := httptest.NewServer(mux)
	defer site.Close()

	_, a, port := newApp(t, func(cmd *Server) {
		cmd.SyncOnStart = true
		cmd.Source.Parser = ParserJSONLD
		cmd.Source.Site.URL = site.URL
		cmd.Source.Site.RPS = 10
	})
	defer a.shutdown()

	go a.run()
	waitForHTTP(port)
	waitForRecipe(t, port, 500)

	status, json := getBody(t, fmt.Sprintf("http://localhost:%d/api/recipes/500", port))
	assert.Equal(t, 200, status)
	assert.Contains(t, json, `"meal_type":"lunch"`)
	assert.Contains(t, json, `"difficulty":"medium"`)
}

func TestServerCmd_signalsAndShutdown(t *testing.T) {
	cmd, _, port := newApp(t, nil)

	go func() {
		err := cmd.Execute([]string{})
		assert.NoError(t, err)
	}()
	waitForHTTP(port)

	status, _ := getBody(t, fmt.Sprintf("http://localhost:%d/ping", port))
	assert.Equal(t, 200, status)

	err := syscall.Kill(syscall.Getpid(), syscall.SIGINT)
	require.NoError(t, err)
	time.Sleep(500 * time.Millisecond) // Должно хватить на завершение.

	cl := &http.Client{
		Timeout: 100 * time.Millisecond,
	}
	_, err = cl.Get(fmt.Sprintf("http://localhost:%d/ping", port))
	require.Error(t, err)
}

func TestServerCmd_fail(t *testing.T) {
	tbl := []struct {
		name   string
		mod    func(cmd *Server)
		errMsg string
	}{
		{"engine", func(cmd *Server) { cmd.Store.Engine = "foo" }, "unknown store engine"},
		{"parser", func(cmd *Server) { cmd.Source.Parser = "foo" }, "unknown parser"},
		{"sync at", func(cmd *Server) { cmd.SyncAt = "foo" }, "sync at"},
		{"week start", func(cmd *Server) { cmd.Web.WeekStart = "funday" }, "week start"},
		{"site url", func(cmd *Server) { cmd.Source.Parser = ParserMicrodata }, "source.site.url"},
		{"pg dsn", func(cmd *Server) { cmd.Store.Engine = EnginePostgres }, "store.pg.dsn"},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			cmd := testServerCmd(unusedPort())
			tt.mod(cmd)

			_, err := cmd.makeApp()
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestServerCmd_flags(t *testing.T) {
	cmd := &Server{}
	_, err := flags.ParseArgs(cmd, []string{
		"--store.engine=memory",
		"--source.parser=jsonld",
		"--source.site.url=http://recipes.example.com",
		"--sync-at=05:00",
		"--sync-on-start",
		"--web.week-start=monday",
	})
	require.NoError(t, err)

	assert.Equal(t, "/recipes/", cmd.Source.Site.IndexPath)
	assert.Equal(t, 2.0, cmd.Source.Site.RPS)
	assert.Equal(t, "0.0.0.0:80", cmd.Web.Listen)
	assert.True(t, cmd.SyncOnStart)

	a, err := cmd.makeApp()
	require.NoError(t, err)
	assert.True(t, a.autoSync)
	assert.Equal(t, time.Monday, a.srv.Opts.WeekStart)
	assert.Nil(t, a.srv.Backup, "memory не поддерживает бекап")

	_, err = flags.ParseArgs(&Server{}, []string{"--store.engine=foo"})
	assert.Error(t, err)
}
