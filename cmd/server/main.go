package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/nominaops/staffbulk/cmd/server/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug            bool `help:"Enable debug mode."`
		Version          kong.VersionFlag
		Server           commands.ServerCmd           `cmd:"" help:"Start the bulk-edit admin API server"`
		Migrate          commands.MigrateCmd          `cmd:"" help:"Run database migrations"`
		ProvisionStorage commands.ProvisionStorageCmd `cmd:"" name:"provision-storage" help:"Provision the chat-attachments bucket and its access policy"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
