package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/docfinder/docfinder/internal/config"
	"github.com/docfinder/docfinder/internal/domain/appointment"
	"github.com/docfinder/docfinder/internal/domain/doctor"
	"github.com/docfinder/docfinder/internal/domain/filter"
	"github.com/docfinder/docfinder/internal/platform/db"
	"github.com/docfinder/docfinder/migrations"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "doctor-directory",
		Short: "Doctor directory and appointment booking service",
	}

	root.AddCommand(serveCmd())
	root.AddCommand(doctorsCmd())
	root.AddCommand(appointmentsCmd())
	root.AddCommand(migrateCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func doctorsCmd() *cobra.Command {
	var (
		search      string
		consult     string
		specialties []string
		sortBy      string
		sourceURL   string
		timeout     time.Duration
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "doctors",
		Short: "Fetch the doctor list and print the filtered result",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sourceURL == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				sourceURL = cfg.SourceURL
				if timeout == 0 {
					timeout = cfg.FetchTimeout
				}
			}

			raw, err := doctor.NewHTTPSource(sourceURL, timeout).Fetch(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch doctors: %w", err)
			}

			f := stateFromFlags(search, consult, specialties, sortBy)
			doctors := doctor.Apply(doctor.Normalize(raw), f)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(doctors)
			}
			if err := printDoctors(out, doctors); err != nil {
				return err
			}
			fmt.Fprintf(out, "location: %s\n", filter.Location(filter.DefaultPath, f))
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive name substring")
	cmd.Flags().StringVar(&consult, "type", "", "Consultation type: video or clinic")
	cmd.Flags().StringSliceVar(&specialties, "specialty", nil, "Specialty to match (repeatable)")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort order: fee or experience")
	cmd.Flags().StringVar(&sourceURL, "source", "", "Doctor list URL (defaults to DOCTORS_SOURCE_URL)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Fetch timeout")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

// stateFromFlags builds the filter state for the doctors command. Specialty
// values may be repeated or comma-separated.
func stateFromFlags(search, consult string, specialties []string, sortBy string) filter.State {
	s := filter.State{
		Search:           search,
		ConsultationType: consult,
		SortBy:           sortBy,
	}
	for _, sp := range specialties {
		if sp = strings.TrimSpace(sp); sp != "" {
			s.Specialties = append(s.Specialties, sp)
		}
	}
	return s
}

func printDoctors(w io.Writer, doctors []doctor.Doctor) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSPECIALTIES\tEXPERIENCE\tFEE\tTYPE")
	for _, d := range doctors {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, d.Name, strings.Join(d.Specialties, ", "),
			orDash(d.Experience, d.ExperienceUnknown), orDash(d.Fee, d.FeeUnknown),
			consultLabel(d.ConsultationType))
	}
	fmt.Fprintf(tw, "\n%d doctor(s)\n", len(doctors))
	return tw.Flush()
}

func orDash(n int, unknown bool) string {
	if unknown {
		return "-"
	}
	return strconv.Itoa(n)
}

func consultLabel(t string) string {
	if t == "" {
		return "-"
	}
	return t
}

func appointmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "appointments",
		Short: "List, book and cancel appointments in the configured ledger",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List booked appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd.Context(), func(ledger *appointment.Ledger, _ *config.Config) error {
				return printAppointments(cmd.OutOrStdout(), ledger.List(cmd.Context()))
			})
		},
	})

	var (
		doctorID int
		date     string
		slot     string
	)
	bookCmd := &cobra.Command{
		Use:   "book",
		Short: "Book an appointment with a doctor from the directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(date) == "" || strings.TrimSpace(slot) == "" {
				return fmt.Errorf("--date and --time are required")
			}
			return withLedger(cmd.Context(), func(ledger *appointment.Ledger, cfg *config.Config) error {
				dir := doctor.NewDirectory(doctor.NewHTTPSource(cfg.SourceURL, cfg.FetchTimeout), zerolog.Nop(), nil)
				if err := dir.Load(cmd.Context()); err != nil {
					return fmt.Errorf("fetch doctors: %w", err)
				}
				d, err := dir.Get(doctorID)
				if err != nil {
					return fmt.Errorf("doctor %d: %w", doctorID, err)
				}
				entry, err := ledger.Book(cmd.Context(), d, date, slot)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Booked %s on %s at %s.\n", entry.Doctor.Name, entry.Date, entry.Time)
				return nil
			})
		},
	}
	bookCmd.Flags().IntVar(&doctorID, "doctor-id", 0, "Directory id of the doctor")
	bookCmd.Flags().StringVar(&date, "date", "", "Appointment date")
	bookCmd.Flags().StringVar(&slot, "time", "", "Appointment time")
	bookCmd.MarkFlagRequired("doctor-id")
	cmd.AddCommand(bookCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "cancel <index>",
		Short: "Cancel the appointment at a zero-based list index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}
			return withLedger(cmd.Context(), func(ledger *appointment.Ledger, _ *config.Config) error {
				if err := ledger.Cancel(cmd.Context(), index); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d appointment(s) remaining.\n", len(ledger.List(cmd.Context())))
				return nil
			})
		},
	})
	return cmd
}

func withLedger(ctx context.Context, fn func(*appointment.Ledger, *config.Config) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := newLogger(cfg.Env)

	slot, _, closeSlot, err := ledgerStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSlot()

	return fn(appointment.NewLedger(slot, logger, nil), cfg)
}

func printAppointments(w io.Writer, entries []appointment.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No appointments booked.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tDOCTOR\tSPECIALTIES\tDATE\tTIME")
	for i, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i, e.Doctor.Name, strings.Join(e.Doctor.Specialties, ", "), e.Date, e.Time)
	}
	return tw.Flush()
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations for the postgres ledger backend",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, migrationSource(dir)).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to a migrations directory (defaults to the embedded set)")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrationSource(dir)).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printMigrationStatus(cmd.OutOrStdout(), statuses)
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to a migrations directory (defaults to the embedded set)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func migrationSource(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}

func printMigrationStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}
