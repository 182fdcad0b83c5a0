// Command gatekeep-init prepares a gatekeep user database: it applies the
// schema migrations and seeds two well-known development accounts. Running
// it against a database that already has users is a no-op unless -force is
// given.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/sentinelhq/gatekeep/internal/auth/domain"
	"github.com/sentinelhq/gatekeep/internal/auth/service"
	"github.com/sentinelhq/gatekeep/internal/auth/store/drivers/sqlite"
)

type seedAccount struct {
	username string
	password string
	role     domain.Role
}

// Development accounts only. Anything deployed beyond a laptop should seed
// its own users and leave these out.
var seedAccounts = []seedAccount{
	{username: "alice", password: "alicepass", role: domain.RoleUser},
	{username: "admin", password: "adminpass", role: domain.RoleAdmin},
}

func main() {
	dbFile := flag.String("db", defaultDBFile(), "path to the SQLite user database")
	force := flag.Bool("force", false, "seed even when the database already has users")
	flag.Parse()

	if err := run(*dbFile, *force); err != nil {
		log.Fatalf("gatekeep-init: %v", err)
	}
}

func defaultDBFile() string {
	if v := os.Getenv("GATEKEEP_DATABASE_FILE"); v != "" {
		return v
	}
	return "gatekeep.db"
}

func run(dbFile string, force bool) error {
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", dbFile)
	st, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	if err := st.ApplyMigrations(); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	fmt.Printf("migrations applied to %s\n", dbFile)

	if !force {
		empty, err := st.Users().IsEmpty(ctx)
		if err != nil {
			return err
		}
		if !empty {
			fmt.Println("database already has users, skipping seed (use -force to override)")
			return nil
		}
	}

	users := &service.UserService{Store: st}
	for _, acct := range seedAccounts {
		if _, err := users.CreateUser(ctx, acct.username, acct.password, acct.role); err != nil {
			return fmt.Errorf("seed %s: %w", acct.username, err)
		}
		fmt.Printf("seeded %s (role: %s)\n", acct.username, acct.role)
	}

	return nil
}
