package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/supa-modo/digiplotClassic/internal/adapters/rest"
	"github.com/supa-modo/digiplotClassic/internal/adapters/sessionfile"
	"github.com/supa-modo/digiplotClassic/internal/application"
	"github.com/supa-modo/digiplotClassic/internal/domain"
	"github.com/supa-modo/digiplotClassic/internal/ports"
)

// defaultMonthlyRent matches the demo backend's seeded unit, in minor
// currency units.
const defaultMonthlyRent int64 = 45000 * 100

const usage = `digiplot portal CLI

Usage:
  portal [flags] <command>

Commands:
  login      sign in (prompts for credentials, handles the 2FA step)
  register   create an account and sign in
  whoami     show the current session
  payments   show the rent schedule for the signed-in tenant
  pay        record a payment for the selected months
  2fa        show or change two-factor settings (2fa status|enable|disable)
  forgot     request a password reset link
  logout     clear the stored session

Flags:
`

func main() {
	apiURL := flag.String("api", envOr("DIGIPLOT_API_URL", "http://localhost:8090"), "backend base URL")
	sessionDir := flag.String("session-dir", "", "session storage directory (default ~/.digiplot)")
	role := flag.String("role", "tenant", "portal to sign in to: tenant, landlord or admin")
	rent := flag.Int64("rent", defaultMonthlyRent, "monthly rent in minor currency units")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	_ = godotenv.Load()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	dir := *sessionDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fatal("resolve home directory: %v", err)
		}
		dir = filepath.Join(home, ".digiplot")
	}
	store, err := sessionfile.New(dir)
	if err != nil {
		fatal("open session store: %v", err)
	}

	backend, err := rest.New(rest.Config{BaseURL: *apiURL, Logger: logger})
	if err != nil {
		fatal("configure backend client: %v", err)
	}

	svc := application.NewService(application.Dependencies{
		Backend: backend,
		Store:   store,
		Logger:  logger,
	})
	svc.Hydrate()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	switch cmd := flag.Arg(0); cmd {
	case "login":
		err = runLogin(ctx, svc, domain.Role(*role))
	case "register":
		err = runRegister(ctx, svc, domain.Role(*role))
	case "whoami":
		err = runWhoami(svc)
	case "payments":
		err = runPayments(ctx, svc, *rent, flag.Args()[1:])
	case "pay":
		err = runPay(ctx, svc, backend, *rent, flag.Args()[1:])
	case "2fa":
		err = runTwoFactor(ctx, svc, flag.Args()[1:])
	case "forgot":
		err = runForgot(ctx, svc)
	case "logout":
		svc.Logout()
		fmt.Println("signed out")
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fatal("%v", err)
	}
}

func runLogin(ctx context.Context, svc *application.Service, role domain.Role) error {
	if !role.Valid() {
		return fmt.Errorf("invalid role %q", role)
	}
	email, err := prompt("Email: ")
	if err != nil {
		return err
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	var flow *application.LoginFlow
	if role == domain.RoleAdmin {
		flow = application.NewAdminLoginFlow(svc)
	} else {
		flow = application.NewLoginFlow(svc)
	}
	if err := flow.SubmitCredentials(ctx, email, password, role); err != nil {
		return err
	}
	if flow.Step() == application.StepChallenge {
		fmt.Println("A verification code was sent to your email.")
		code, err := prompt("Code: ")
		if err != nil {
			return err
		}
		flow.Paste(code)
		if err := flow.SubmitCode(ctx); err != nil {
			return errors.New(flow.Err())
		}
	}

	user, ok := svc.CurrentUser()
	if !ok {
		return errors.New("login did not produce a session")
	}
	fmt.Printf("Signed in as %s (%s)\n", user.DisplayName(), user.Role)
	fmt.Printf("Next stop: %s\n", user.Role.HomeRoute())
	return nil
}

func runRegister(ctx context.Context, svc *application.Service, role domain.Role) error {
	if role != domain.RoleTenant && role != domain.RoleLandlord {
		return fmt.Errorf("self-registration supports tenant and landlord, not %q", role)
	}
	first, err := prompt("First name: ")
	if err != nil {
		return err
	}
	last, err := prompt("Last name: ")
	if err != nil {
		return err
	}
	email, err := prompt("Email: ")
	if err != nil {
		return err
	}
	phone, err := prompt("Phone (optional): ")
	if err != nil {
		return err
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	res, err := svc.Register(ctx, ports.RegisterParams{
		FirstName: first,
		LastName:  last,
		Email:     email,
		Phone:     phone,
		Password:  password,
		Role:      role,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Welcome, %s! You are signed in.\n", res.User.DisplayName())
	return nil
}

func runWhoami(svc *application.Service) error {
	user, ok := svc.CurrentUser()
	if !ok {
		fmt.Println("not signed in")
		return nil
	}
	fmt.Printf("%s <%s>\nrole: %s\n", user.DisplayName(), user.Email, user.Role)
	return nil
}

func runPayments(ctx context.Context, svc *application.Service, rent int64, selections []string) error {
	schedule, err := buildSchedule(ctx, svc, rent, selections)
	if err != nil {
		return err
	}
	printSchedule(schedule)
	return nil
}

func runPay(ctx context.Context, svc *application.Service, backend *rest.Client, rent int64, selections []string) error {
	schedule, err := buildSchedule(ctx, svc, rent, selections)
	if err != nil {
		return err
	}
	selected := schedule.Selected()
	if len(selected) == 0 {
		return errors.New("no months selected")
	}
	printSchedule(schedule)

	method, err := prompt("Payment method (mpesa/card): ")
	if err != nil {
		return err
	}
	var unitID uuid.UUID
	if user, ok := svc.CurrentUser(); ok && user.Tenant != nil {
		unitID = user.Tenant.UnitID
	}
	record, err := backend.RecordPayment(ctx, svc.Token(), rest.PaymentParams{
		UnitID: unitID,
		Amount: schedule.Total(),
		Method: method,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Payment of %s accepted, transaction %s\n", formatMoney(record.Amount), record.TransactionID)
	return nil
}

func buildSchedule(ctx context.Context, svc *application.Service, rent int64, selections []string) (*application.Schedule, error) {
	user, ok := svc.CurrentUser()
	if !ok {
		return nil, errors.New("not signed in")
	}
	unit := domain.Unit{MonthlyRent: rent}
	if user.Tenant != nil {
		unit.ID = user.Tenant.UnitID
	}
	schedule, err := svc.PaymentSchedule(ctx, unit)
	if err != nil {
		return nil, err
	}
	for _, key := range selections {
		schedule.Toggle(application.MonthKey(key))
	}
	return schedule, nil
}

func printSchedule(schedule *application.Schedule) {
	for _, month := range schedule.Months() {
		mark := " "
		switch {
		case month.Paid:
			mark = "paid"
		case month.Selected:
			mark = "[x]"
		case month.Selectable:
			mark = "[ ]"
		}
		note := ""
		if month.Overdue && !month.Paid {
			note = "  overdue"
		}
		fmt.Printf("%-8s %-16s %s%s\n", month.Key, month.Label, mark, note)
	}
	fmt.Printf("Total for %d selected month(s): %s\n", len(schedule.Selected()), formatMoney(schedule.Total()))
}

func runTwoFactor(ctx context.Context, svc *application.Service, args []string) error {
	sub := "status"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "status":
		status, err := svc.TwoFactorStatus(ctx)
		if err != nil {
			return err
		}
		if status.Enabled {
			fmt.Printf("two-factor authentication is enabled (%s)\n", status.Method)
		} else {
			fmt.Println("two-factor authentication is disabled")
		}
	case "enable", "disable":
		var res ports.OpResult
		var err error
		if sub == "enable" {
			res, err = svc.EnableTwoFactor(ctx)
		} else {
			res, err = svc.DisableTwoFactor(ctx)
		}
		if err != nil {
			return err
		}
		if !res.OK {
			return errors.New(res.Message)
		}
		fmt.Println(res.Message)
	default:
		return fmt.Errorf("unknown 2fa subcommand %q", sub)
	}
	return nil
}

func runForgot(ctx context.Context, svc *application.Service) error {
	email, err := prompt("Email: ")
	if err != nil {
		return err
	}
	res, err := svc.ForgotPassword(ctx, email)
	if err != nil {
		return err
	}
	if !res.OK {
		return errors.New(res.Message)
	}
	fmt.Println(res.Message)
	return nil
}

func prompt(label string) (string, error) {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(label string) (string, error) {
	fmt.Print(label)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func formatMoney(minor int64) string {
	return fmt.Sprintf("KES %d.%02d", minor/100, minor%100)
}

func envOr(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
