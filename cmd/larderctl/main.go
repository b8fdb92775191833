package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dalemusser/larder/internal/app/bootstrap"
	"github.com/dalemusser/larder/internal/app/household"
	"github.com/dalemusser/larder/internal/app/store/audit"
	householdstore "github.com/dalemusser/larder/internal/app/store/households"
	"github.com/dalemusser/larder/internal/app/system/auditlog"
	"github.com/dalemusser/larder/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand(connect)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "larderctl:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

func connect(ctx context.Context, opts *cli.RootOptions) (*cli.Backend, error) {
	client, err := bootstrap.Connect(ctx, bootstrap.AppConfig{
		MongoURI:      opts.MongoURI,
		MongoDatabase: opts.MongoDatabase,
	})
	if err != nil {
		return nil, err
	}
	db := client.Database(opts.MongoDatabase)
	return &cli.Backend{
		Svc:    household.NewFromDB(db, opts.Logger),
		Lister: householdstore.New(db),
		Audit: auditlog.New(audit.New(db), opts.Logger, auditlog.Config{
			Households: auditlog.ModeDB,
			Admin:      auditlog.ModeDB,
		}),
		Close: func() { _ = client.Disconnect(context.Background()) },
	}, nil
}
