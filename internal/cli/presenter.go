package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/huh"
	"github.com/fatih/color"
	"github.com/itchyny/gojq"

	"github.com/rocketship-ai/shortcuts/internal/feedback"
	"github.com/rocketship-ai/shortcuts/internal/interaction"
	"github.com/rocketship-ai/shortcuts/internal/shortcut"
)

var colorValue = regexp.MustCompile(`^#?[0-9A-Fa-f]{6}$`)

// TerminalPresenter writes run output to a terminal and asks questions with
// interactive forms. Without a terminal it answers from preset values.
type TerminalPresenter struct {
	out         io.Writer
	interactive bool
	assumeYes   bool
	answers     map[string]string // preset values for interactive variables by key
	jq          *gojq.Query

	mu sync.Mutex
	// forms holds a token while a form owns the terminal
	forms   chan struct{}
	runForm func(ctx context.Context, f *huh.Form) error
}

// PresenterOptions configures a TerminalPresenter
type PresenterOptions struct {
	Interactive bool
	AssumeYes   bool
	Answers     map[string]string
	// JQ filters JSON response bodies before display
	JQ string
}

// NewTerminalPresenter creates a presenter writing to out
func NewTerminalPresenter(out io.Writer, opts PresenterOptions) (*TerminalPresenter, error) {
	p := &TerminalPresenter{
		out:         out,
		interactive: opts.Interactive,
		assumeYes:   opts.AssumeYes,
		answers:     opts.Answers,
		forms:       make(chan struct{}, 1),
		runForm:     func(ctx context.Context, f *huh.Form) error { return f.RunWithContext(ctx) },
	}
	if opts.JQ != "" {
		q, err := gojq.Parse(opts.JQ)
		if err != nil {
			return nil, fmt.Errorf("invalid jq filter: %w", err)
		}
		p.jq = q
	}
	return p, nil
}

func (p *TerminalPresenter) Toast(_ context.Context, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%s %s\n", color.CyanString("›"), message)
}

func (p *TerminalPresenter) Dialog(_ context.Context, title, message string, dismissed *interaction.Reply[struct{}]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if title != "" {
		fmt.Fprintln(p.out, color.New(color.Bold).Sprint(title))
	}
	fmt.Fprintln(p.out, message)
	dismissed.Resolve(struct{}{})
}

func (p *TerminalPresenter) Prompt(ctx context.Context, message, defaultValue string, reply *interaction.Reply[string]) {
	if !p.interactive {
		reply.Resolve(defaultValue)
		return
	}
	value := defaultValue
	field := huh.NewInput().Title(message).Value(&value)
	p.ask(ctx, reply.Done(), field, func(err error) {
		if err != nil {
			reply.Reject(err)
			return
		}
		reply.Resolve(value)
	})
}

func (p *TerminalPresenter) Confirm(ctx context.Context, message string, reply *interaction.Reply[bool]) {
	if p.assumeYes {
		reply.Resolve(true)
		return
	}
	if !p.interactive {
		reply.Reject(nil)
		return
	}
	var ok bool
	field := huh.NewConfirm().Title(message).Affirmative("Yes").Negative("No").Value(&ok)
	p.ask(ctx, reply.Done(), field, func(err error) {
		if err != nil {
			reply.Reject(err)
			return
		}
		reply.Resolve(ok)
	})
}

func (p *TerminalPresenter) AskVariable(ctx context.Context, v shortcut.Variable, reply *interaction.Reply[string]) {
	if value, ok := p.answers[v.Key]; ok {
		reply.Resolve(value)
		return
	}
	if !p.interactive {
		reply.Reject(fmt.Errorf("variable %s needs a value; pass --var %s=...", v.Key, v.Key))
		return
	}

	field, value := variableField(v)
	p.ask(ctx, reply.Done(), field, func(err error) {
		if err != nil {
			reply.Reject(err)
			return
		}
		reply.Resolve(value())
	})
}

// ask shows field in its own form without blocking the caller. Forms take
// turns on the terminal. A form is abandoned once ctx is done or the reply
// was settled elsewhere, which happens when its waiter times out.
func (p *TerminalPresenter) ask(ctx context.Context, settled <-chan struct{}, field huh.Field, settle func(error)) {
	formCtx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-settled:
			cancel()
		case <-formCtx.Done():
		}
	}()

	go func() {
		defer cancel()
		select {
		case p.forms <- struct{}{}:
		case <-formCtx.Done():
			settle(formCtx.Err())
			return
		}
		defer func() { <-p.forms }()

		if err := formCtx.Err(); err != nil {
			settle(err)
			return
		}
		settle(p.runForm(formCtx, huh.NewForm(huh.NewGroup(field))))
	}()
}

// variableField builds the input for v. The returned func reads the answer
// once the form has completed.
func variableField(v shortcut.Variable) (huh.Field, func() string) {
	title := v.Title
	if title == "" {
		title = v.Key
	}
	value := v.Value

	switch v.Type {
	case shortcut.VariableSelect:
		field := huh.NewSelect[string]().Title(title).Options(huh.NewOptions(v.Options...)...).Value(&value)
		return field, func() string { return value }
	case shortcut.VariableToggle:
		on, _ := strconv.ParseBool(v.Value)
		field := huh.NewConfirm().Title(title).Affirmative("On").Negative("Off").Value(&on)
		return field, func() string { return strconv.FormatBool(on) }
	}

	input := huh.NewInput().Title(title).Value(&value)
	switch v.Type {
	case shortcut.VariablePassword:
		input = input.EchoMode(huh.EchoModePassword)
	case shortcut.VariableNumber:
		input = input.Validate(func(s string) error {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				return fmt.Errorf("enter a number")
			}
			return nil
		})
	case shortcut.VariableColor:
		input = input.Validate(func(s string) error {
			if !colorValue.MatchString(s) {
				return fmt.Errorf("enter 6 hex digits")
			}
			return nil
		})
	}
	return input, func() string {
		if v.Type == shortcut.VariableColor {
			return strings.TrimPrefix(value, "#")
		}
		return value
	}
}

// Present prints the outcome with the detail its feedback mode asks for
func (p *TerminalPresenter) Present(_ context.Context, event feedback.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	detail := feedback.DetailFor(event.Mode)
	name := event.Shortcut
	if name == "" {
		name = event.ShortcutID
	}

	switch event.Kind {
	case feedback.KindSuccess:
		line := fmt.Sprintf("%s %s", color.GreenString("✓"), name)
		if event.Response != nil {
			line += fmt.Sprintf(" %s (%s)", event.Response.Status, event.Response.Elapsed.Round(1e6))
		}
		fmt.Fprintln(p.out, line)
	case feedback.KindFailure:
		fmt.Fprintf(p.out, "%s %s failed (%s): %s\n", color.RedString("✗"), name, event.ErrorKind, event.Message)
	default:
		return
	}

	for _, msg := range event.ScriptErrors {
		fmt.Fprintf(p.out, "%s %s\n", color.YellowString("!"), msg)
	}

	if event.Response == nil || detail < feedback.DetailFull {
		return
	}
	if detail >= feedback.DetailDebug {
		p.printHeaders(event.Response)
	}
	p.printBody(event.Response)
}

func (p *TerminalPresenter) printHeaders(resp *feedback.ResponseSummary) {
	keys := make([]string, 0, len(resp.Headers))
	for k := range resp.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(p.out, "%s: %s\n", color.New(color.Faint).Sprint(k), strings.Join(resp.Headers[k], ", "))
	}
	if len(keys) > 0 {
		fmt.Fprintln(p.out)
	}
}

func (p *TerminalPresenter) printBody(resp *feedback.ResponseSummary) {
	if len(resp.Body) == 0 {
		return
	}
	if p.jq == nil {
		fmt.Fprintln(p.out, string(resp.Body))
	} else if out, err := applyJQ(p.jq, resp.Body); err != nil {
		fmt.Fprintf(p.out, "%s %v\n", color.YellowString("jq:"), err)
	} else {
		fmt.Fprint(p.out, out)
	}
	if resp.Truncated {
		fmt.Fprintln(p.out, color.YellowString("(response body truncated)"))
	}
}

// applyJQ runs the query over a JSON body. Strings are printed raw, other
// values as indented JSON, one result per line.
func applyJQ(q *gojq.Query, body []byte) (string, error) {
	var input any
	if err := json.Unmarshal(body, &input); err != nil {
		return "", fmt.Errorf("response body is not JSON: %w", err)
	}

	var sb strings.Builder
	iter := q.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return "", err
		}
		if s, isString := v.(string); isString {
			sb.WriteString(s)
			sb.WriteByte('\n')
			continue
		}
		encoded, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		sb.Write(encoded)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
