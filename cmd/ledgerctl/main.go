// Command ledgerctl runs maintenance tasks against the ledger database without
// going through the HTTP API. It is the way back in when every registered
// device has been lost.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/analytics"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/config"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/database"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/deviceauth"
)

const usage = `usage: ledgerctl <command> [flags]

commands:
  seed-admin     -email -password [-name]   create the admin account if missing
  generate-code                             issue a one-time device registration code
  register-device -name                     enroll a device and print its token
  cleanup        [-months N]                roll orders older than N months into analytics
  devices                                   list registered devices
`

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Read()
	dbPath := cfg.DBPath

	cmd, args := os.Args[1], os.Args[2:]
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.StringVar(&dbPath, "db", dbPath, "path to the SQLite database")

	var run func(ctx context.Context, db *sql.DB) error
	switch cmd {
	case "seed-admin":
		email := fs.String("email", cfg.AdminEmail, "admin email")
		password := fs.String("password", cfg.AdminPassword, "admin password")
		name := fs.String("name", cfg.AdminName, "display name")
		run = func(ctx context.Context, db *sql.DB) error {
			id, err := database.EnsureAdmin(ctx, db, *email, *password, *name)
			if err != nil {
				return err
			}
			fmt.Println("admin id:", id)
			return nil
		}
	case "generate-code":
		run = func(ctx context.Context, db *sql.DB) error {
			gate := deviceauth.NewGate(db, deviceauth.Config{CodeTTL: cfg.DeviceCodeTTL})
			code, err := gate.GenerateCode(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("code: %s (expires %s)\n", code.Code, code.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		}
	case "register-device":
		name := fs.String("name", "", "device name")
		run = func(ctx context.Context, db *sql.DB) error {
			reg, err := deviceauth.NewGate(db, deviceauth.Config{}).EnrollLocal(ctx, *name, "ledgerctl")
			if err != nil {
				return err
			}
			fmt.Println("device id:   ", reg.Device.ID)
			fmt.Println("device token:", reg.Token)
			return nil
		}
	case "cleanup":
		months := fs.Int("months", analytics.DefaultMonths, "archive orders older than this many months")
		run = func(ctx context.Context, db *sql.DB) error {
			res, err := analytics.NewAggregator(db).Aggregate(ctx, *months)
			if err != nil {
				return err
			}
			fmt.Printf("aggregated %d month(s), deleted %d order(s)\n", res.Aggregated, res.Deleted)
			return nil
		}
	case "devices":
		run = func(ctx context.Context, db *sql.DB) error {
			devices, err := deviceauth.NewGate(db, deviceauth.Config{}).ListDevices(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tACTIVE\tVIA\tCREATED")
			for _, d := range devices {
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", d.ID, d.Name, d.IsActive, d.RegisteredVia, d.CreatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		}
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal(err)
	}
	if err := run(ctx, db); err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}
