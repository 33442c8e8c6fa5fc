package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/geodash/internal/flagx"
	"github.com/dmitrijs2005/geodash/internal/server"
	"github.com/dmitrijs2005/geodash/internal/server/auth"
	"github.com/dmitrijs2005/geodash/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	// -issue-key <role> prints a signed API key and exits.
	fs := flag.NewFlagSet("issue", flag.ContinueOnError)
	role := fs.String("issue-key", "", "print an API key for role (anon|service) and exit")
	if err := fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-issue-key"})); err != nil {
		log.Fatal(err)
	}
	if *role != "" {
		key, err := auth.GenerateKey(*role, []byte(cfg.SecretKey), cfg.KeyValidityDuration)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(key)
		return
	}

	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		os.Exit(1)
	}

}
