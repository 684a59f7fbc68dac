package cmd

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/nvkalinin/meal-planner/log"
)

type Backup struct {
	ServerUrl   string        `long:"server-url" short:"s" env:"SERVER_URL" value-name:"str" default:"http://localhost" description:"URL сервера с REST API."`
	AdminPasswd string        `long:"passwd" short:"p" env:"WEB_ADMIN_PASSWD" value-name:"str" description:"Пароль пользователя admin."`
	OutFile     string        `long:"out" short:"o" env:"OUT" value-name:"path" description:"Путь к файлу, куда сохранить бекап. По умолчанию - имя, которое предложит сервер, либо meals_YYYY-MM-DD.bolt.gz"`
	Timeout     time.Duration `long:"timeout" short:"t" env:"TIMEOUT" value-name:"duration" default:"600s" description:"Макс. время выполнения запроса."`
}

func (b *Backup) Execute(args []string) error {
	fname, err := b.download()
	if err != nil {
		log.Printf("[ERROR] %v", err)
		return err
	}

	log.Printf("[INFO] backup saved to %s", fname)
	return nil
}

func (b *Backup) download() (string, error) {
	req, err := http.NewRequest(http.MethodGet, makeUrl(b.ServerUrl, "/api/admin/backup"), http.NoBody)
	if err != nil {
		return "", fmt.Errorf("cannot create request: %w", err)
	}
	req.SetBasicAuth("admin", b.AdminPasswd)

	client := &http.Client{Timeout: b.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cannot make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("[WARN] cannot close resp body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("cannot read err response (status %d): %w", resp.StatusCode, err)
		}
		return "", fmt.Errorf("backup error (status %d): %w", resp.StatusCode, readJsonError(respBody))
	}

	fname := b.filename(resp)
	f, err := os.Create(fname)
	if err != nil {
		return "", fmt.Errorf("cannot open %s: %w", fname, err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("cannot save backup to %s: %w", fname, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("cannot close %s: %w", fname, err)
	}
	return fname, nil
}

// filename выбирает имя файла: --out, затем Content-Disposition от сервера, затем имя по умолчанию.
func (b *Backup) filename(resp *http.Response) string {
	if len(b.OutFile) > 0 {
		return b.OutFile
	}

	defName := fmt.Sprintf("meals_%s.bolt.gz", time.Now().Format("2006-01-02"))

	disp := resp.Header.Get("Content-Disposition")
	if disp == "" {
		return defName
	}

	_, params, err := mime.ParseMediaType(disp)
	if err != nil {
		return defName
	}

	// Сервер не должен указывать, в какую директорию писать.
	name := filepath.Base(params["filename"])
	if name == "." || name == "/" {
		return defName
	}

	return name
}
