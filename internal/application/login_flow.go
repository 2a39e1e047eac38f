package application

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/supa-modo/digiplotClassic/internal/domain"
	"github.com/supa-modo/digiplotClassic/internal/ports"
)

// CodeLength is the number of one-time-code cells in the 2FA challenge.
const CodeLength = 6

// FlowStep indexes the login flow state machine.
type FlowStep int

const (
	StepCredentials FlowStep = iota
	StepChallenge
	StepDone
)

// LoginFlow coordinates the two-step login: credential submission, then an
// optional one-time-code challenge. It is transient view state: dropped on
// success, on navigation away, or on an explicit return to the login form.
//
// The challenge code is modeled as six independent single-character cells
// with a focus cursor, matching the portal's input widget semantics.
type LoginFlow struct {
	svc       *Service
	fixedRole domain.Role // non-empty in the restricted admin console variant

	step     FlowStep
	email    string
	password string
	role     domain.Role

	cells [CodeLength]string
	focus int

	errMsg string
	result ports.LoginResult
}

// NewLoginFlow creates a flow for the public portal, where the user picks
// tenant or landlord.
func NewLoginFlow(svc *Service) *LoginFlow {
	return &LoginFlow{svc: svc}
}

// NewAdminLoginFlow creates the restricted console variant with the role
// fixed to admin.
func NewAdminLoginFlow(svc *Service) *LoginFlow {
	return &LoginFlow{svc: svc, fixedRole: domain.RoleAdmin}
}

func (f *LoginFlow) Step() FlowStep { return f.step }

// Err returns the inline error message for the current step, empty when none.
func (f *LoginFlow) Err() string { return f.errMsg }

// Result returns the successful login outcome once the flow reached StepDone.
func (f *LoginFlow) Result() (ports.LoginResult, bool) {
	if f.step != StepDone {
		return ports.LoginResult{}, false
	}
	return f.result, true
}

// SubmitCredentials runs the first step. Three outcomes: success moves to
// StepDone, a step-up requirement moves to StepChallenge with any previous
// error cleared, and a hard failure stays on StepCredentials with the
// backend's message (or a safe generic fallback) shown inline.
func (f *LoginFlow) SubmitCredentials(ctx context.Context, email, password string, role domain.Role) error {
	if f.step != StepCredentials {
		return fmt.Errorf("%w: credentials already submitted", domain.ErrInvalidInput)
	}
	if f.fixedRole != "" {
		role = f.fixedRole
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		f.errMsg = "email and password are required"
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, f.errMsg)
	}
	if !role.Valid() {
		f.errMsg = "select a role to sign in as"
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, f.errMsg)
	}

	f.email = email
	f.password = password
	f.role = role

	res, err := f.svc.Login(ctx, ports.LoginParams{
		Email:    email,
		Password: password,
		Role:     role,
	})
	if err != nil {
		f.errMsg = userFacingMessage(err)
		return err
	}
	if res.Requires2FA {
		f.errMsg = ""
		f.clearCells()
		f.step = StepChallenge
		return nil
	}
	f.result = res
	f.step = StepDone
	return nil
}

// TypeDigit handles keyboard input into the focused cell. Multi-character or
// non-digit input is rejected per cell; accepting a digit auto-advances the
// focus to the next cell.
func (f *LoginFlow) TypeDigit(input string) {
	if f.step != StepChallenge {
		return
	}
	if len(input) != 1 || !unicode.IsDigit(rune(input[0])) {
		return
	}
	f.cells[f.focus] = input
	if f.focus < CodeLength-1 {
		f.focus++
	}
}

// Backspace clears the focused cell; on an already-empty cell it moves the
// focus to the previous cell instead.
func (f *LoginFlow) Backspace() {
	if f.step != StepChallenge {
		return
	}
	if f.cells[f.focus] != "" {
		f.cells[f.focus] = ""
		return
	}
	if f.focus > 0 {
		f.focus--
	}
}

// Paste replaces the cell buffer with up to six digits extracted from the
// pasted string, filled left to right with focus on the last filled cell.
// Pasting a full code yields the same cell state as typing the digits one
// by one.
func (f *LoginFlow) Paste(input string) {
	if f.step != StepChallenge {
		return
	}
	f.cells = [CodeLength]string{}
	f.focus = 0
	filled := 0
	for _, r := range input {
		if filled >= CodeLength {
			break
		}
		if !unicode.IsDigit(r) {
			continue
		}
		f.cells[filled] = string(r)
		filled++
	}
	if filled > 0 {
		f.focus = filled - 1
	}
}

// Cells exposes the current cell contents for rendering.
func (f *LoginFlow) Cells() [CodeLength]string { return f.cells }

// Focus reports the focused cell index.
func (f *LoginFlow) Focus() int { return f.focus }

// Code concatenates the cells; complete only when all six are filled.
func (f *LoginFlow) Code() string {
	return strings.Join(f.cells[:], "")
}

// SubmitCode runs the challenge step. An incomplete code is an inline
// validation error with no network call. A rejected code clears all cells and
// keeps the flow on the challenge step.
func (f *LoginFlow) SubmitCode(ctx context.Context) error {
	if f.step != StepChallenge {
		return fmt.Errorf("%w: no challenge pending", domain.ErrInvalidInput)
	}
	code := f.Code()
	if len(code) != CodeLength {
		f.errMsg = "enter the full 6-digit code"
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, f.errMsg)
	}

	res, err := f.svc.Login(ctx, ports.LoginParams{
		Email:         f.email,
		Password:      f.password,
		Role:          f.role,
		TwoFactorCode: code,
	})
	if err != nil {
		f.clearCells()
		f.errMsg = userFacingMessage(err)
		return err
	}
	if res.Requires2FA {
		// Backend still demands a factor; treat like a rejected code.
		f.clearCells()
		f.errMsg = "verification failed, request a new code"
		return fmt.Errorf("%w: challenge not satisfied", domain.ErrUnauthorized)
	}
	f.result = res
	f.step = StepDone
	return nil
}

// Back returns from the challenge to the credential form, clearing the code
// buffer and any error without re-submitting anything.
func (f *LoginFlow) Back() {
	if f.step != StepChallenge {
		return
	}
	f.clearCells()
	f.errMsg = ""
	f.step = StepCredentials
}

func (f *LoginFlow) clearCells() {
	for i := range f.cells {
		f.cells[i] = ""
	}
	f.focus = 0
}
