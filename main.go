package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/nvkalinin/meal-planner/cmd"
	"github.com/nvkalinin/meal-planner/log"
)

type CLI struct {
	Debug bool `short:"d" long:"debug" env:"DEBUG" description:"Выводить отладочные сообщения в лог."`

	Server   cmd.Server   `command:"server" description:"Запустить сервер (rest + периодическая синхронизация каталога рецептов)."`
	Sync     cmd.Sync     `command:"sync" description:"Синхронизировать каталог рецептов со всеми источниками."`
	Backup   cmd.Backup   `command:"backup" description:"Сделать резервную копию хранилища bolt."`
	Calendar cmd.Calendar `command:"calendar" description:"Показать сетку месяца."`
}

func main() {
	// Переменные из .env не перекрывают уже заданные в окружении.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("[WARN] cannot load .env: %v", err)
	}

	cli := &CLI{}
	parser := flags.NewParser(cli, flags.Default)
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		log.AllowDebug = cli.Debug

		if cmd != nil {
			return cmd.Execute(args)
		}
		return nil
	}

	if _, err := parser.Parse(); err != nil {
		flagsErr, isFlagsErr := err.(flags.ErrorType)
		if isFlagsErr && flagsErr == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
