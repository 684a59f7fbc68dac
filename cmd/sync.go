package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nvkalinin/meal-planner/log"
)

type Sync struct {
	ServerUrl   string        `long:"server-url" short:"s" env:"SERVER_URL" value-name:"str" default:"http://localhost" description:"URL сервера с REST API."`
	AdminPasswd string        `long:"passwd" short:"p" env:"WEB_ADMIN_PASSWD" value-name:"str" description:"Пароль пользователя admin."`
	Timeout     time.Duration `long:"timeout" short:"t" env:"TIMEOUT" value-name:"duration" default:"60s" description:"Макс. время выполнения запроса."`
}

func (s *Sync) Execute(args []string) error {
	n, err := s.sync()
	if err != nil {
		log.Printf("[ERROR] %v", err)
		return err
	}

	log.Printf("[INFO] catalog synced: %d recipes", n)
	return nil
}

func (s *Sync) sync() (int, error) {
	url := makeUrl(s.ServerUrl, "/api/admin/sync")
	req, err := http.NewRequest(http.MethodPost, url, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("cannot make request: %w", err)
	}
	req.SetBasicAuth("admin", s.AdminPasswd)
	log.Printf("[DEBUG] sync request: URL=%s", url)

	client := &http.Client{
		Timeout: s.Timeout,
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("cannot make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("[WARN] cannot close response: %v", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("cannot read response: %w", err)
	}
	log.Printf("[DEBUG] sync resp body: %s", respBody)

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("sync error (status %d): %w", resp.StatusCode, readJsonError(respBody))
	}

	res := &struct {
		Recipes int `json:"recipes"`
	}{}
	if err := json.Unmarshal(respBody, res); err != nil {
		return 0, fmt.Errorf("cannot parse response (status %d): %w", resp.StatusCode, err)
	}
	return res.Recipes, nil
}
