// Package tui runs a form session in the terminal. Every control is turned
// into one or more prompts and answers are written back through the session,
// so validation and array handling stay with the form.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-formschema/pkg/arrayfield"
	"github.com/goliatone/go-formschema/pkg/render"
	"github.com/goliatone/go-formschema/pkg/schema"
	"github.com/goliatone/go-formschema/pkg/validation"
	"github.com/goliatone/go-formschema/pkg/values"
)

// Name is the registry name of this renderer.
const Name = "tui"

const defaultMaxAttempts = 3

// Renderer implements render.Interactive for terminal sessions.
type Renderer struct {
	driver      PromptDriver
	theme       Theme
	maxAttempts int
	logger      *slog.Logger
}

var _ render.Interactive = (*Renderer)(nil)

// New constructs a TUI renderer backed by survey unless a driver is given.
func New(options ...Option) *Renderer {
	r := &Renderer{
		theme:       DefaultTheme,
		maxAttempts: defaultMaxAttempts,
		logger:      slog.Default(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(nil, nil)
	}
	return r
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return Name
}

// Run prompts every editable control in schema order, then keeps asking for
// the fields that fail validation until they pass or the attempts run out.
func (r *Renderer) Run(ctx context.Context, session render.Session) error {
	if ctx == nil {
		return errors.New("tui: context is required")
	}
	if session == nil {
		return errors.New("tui: session is required")
	}

	view, err := session.View(ctx)
	if err != nil {
		return fmt.Errorf("tui: build view: %w", err)
	}
	for _, section := range view.Sections {
		if section.Title != "" {
			if err := r.driver.Info(ctx, r.theme.SectionPrefix+section.Title); err != nil {
				return err
			}
		}
		for _, ctrl := range section.Controls {
			if err := r.promptControl(ctx, session, ctrl, false); err != nil {
				return err
			}
		}
	}

	for attempt := 0; ; attempt++ {
		errs := session.Validate()
		if errs.Empty() {
			return nil
		}
		if err := r.report(ctx, errs); err != nil {
			return err
		}
		if attempt >= r.maxAttempts {
			r.logger.Debug("tui: giving up on invalid fields", "fields", errs.Keys())
			return fmt.Errorf("%w: %d field(s)", ErrInvalid, len(errs))
		}

		view, err := session.View(ctx)
		if err != nil {
			return fmt.Errorf("tui: build view: %w", err)
		}
		for _, section := range view.Sections {
			for _, ctrl := range section.Controls {
				if !failing(ctrl, errs) {
					continue
				}
				if err := r.promptControl(ctx, session, ctrl, true); err != nil {
					return err
				}
			}
		}
	}
}

func (r *Renderer) report(ctx context.Context, errs validation.ErrorMap) error {
	for _, key := range errs.Keys() {
		if err := r.driver.Info(ctx, fmt.Sprintf("%s%s: %s", r.theme.ErrorPrefix, key, errs[key])); err != nil {
			return err
		}
	}
	return nil
}

func failing(ctrl render.Control, errs validation.ErrorMap) bool {
	if errs[ctrl.ID] != "" {
		return true
	}
	if ctrl.Kind != render.KindArray {
		return false
	}
	for key := range errs {
		if id, _, _, ok := arrayfield.ParseInputName(key); ok && id == ctrl.ID {
			return true
		}
	}
	return false
}

func (r *Renderer) promptControl(ctx context.Context, session render.Session, ctrl render.Control, retry bool) error {
	if ctrl.ReadOnly {
		return nil
	}
	label := render.PlainText(ctrl.Label)
	help := render.PlainText(ctrl.Help)

	switch ctrl.Kind {
	case render.KindInput:
		return r.promptInput(ctx, session, ctrl, label, help)

	case render.KindTextarea:
		raw, err := r.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: ctrl.Value, Help: help})
		if err != nil {
			return err
		}
		return session.SetValue(ctrl.ID, raw)

	case render.KindAuto:
		raw, err := r.driver.Input(ctx, InputConfig{Message: label, Default: ctrl.Value, Help: autoHelp(help)})
		if err != nil {
			return err
		}
		return session.SetValue(ctrl.ID, values.SplitList(raw))

	case render.KindSelect, render.KindAsync:
		return r.promptOptions(ctx, session, ctrl, label, help, ctrl.Multi)

	case render.KindChoice:
		switch ctrl.Mode {
		case render.ChoiceToggle:
			ok, err := r.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: ctrl.Checked, Help: help})
			if err != nil {
				return err
			}
			return session.SetValue(ctrl.ID, ok)
		case render.ChoiceMulti:
			return r.promptOptions(ctx, session, ctrl, label, help, true)
		default:
			return r.promptOptions(ctx, session, ctrl, label, help, false)
		}

	case render.KindArray:
		return r.promptArray(ctx, session, ctrl, label, retry)

	default:
		return fmt.Errorf("tui: %w: %q on field %q", render.ErrUnknownFieldType, ctrl.Kind, ctrl.ID)
	}
}

func (r *Renderer) promptInput(ctx context.Context, session render.Session, ctrl render.Control, label, help string) error {
	cfg := InputConfig{Message: label, Default: ctrl.Value, Help: help}
	for {
		var (
			raw string
			err error
		)
		if ctrl.Type == string(schema.TypePassword) {
			raw, err = r.driver.Password(ctx, cfg)
		} else {
			raw, err = r.driver.Input(ctx, cfg)
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(raw)
		if ctrl.Type == string(schema.TypeNumber) && trimmed != "" {
			n, err := strconv.ParseFloat(trimmed, 64)
			if err != nil {
				if err := r.driver.Info(ctx, fmt.Sprintf("%s%s: not a number", r.theme.ErrorPrefix, label)); err != nil {
					return err
				}
				continue
			}
			return session.SetValue(ctrl.ID, n)
		}
		return session.SetValue(ctrl.ID, raw)
	}
}

func (r *Renderer) promptOptions(ctx context.Context, session render.Session, ctrl render.Control, label, help string, multi bool) error {
	if len(ctrl.Options) == 0 {
		// Nothing to choose from (async endpoint empty or unreachable): accept
		// free entry.
		def := ctrl.Value
		if multi {
			def = strings.Join(ctrl.Selected, ", ")
		}
		raw, err := r.driver.Input(ctx, InputConfig{Message: label, Default: def, Help: help})
		if err != nil {
			return err
		}
		if multi {
			return session.SetValue(ctrl.ID, values.SplitList(raw))
		}
		return session.SetValue(ctrl.ID, strings.TrimSpace(raw))
	}

	labels := make([]string, len(ctrl.Options))
	var selected []int
	for i, opt := range ctrl.Options {
		labels[i] = opt.Label
		if labels[i] == "" {
			labels[i] = opt.Value
		}
		if opt.Selected {
			selected = append(selected, i)
		}
	}

	if multi {
		indices, err := r.driver.MultiSelect(ctx, SelectConfig{
			Message:  label,
			Options:  labels,
			Defaults: selected,
			Help:     help,
		})
		if err != nil {
			return err
		}
		chosen := make([]string, 0, len(indices))
		for _, idx := range indices {
			if idx >= 0 && idx < len(ctrl.Options) {
				chosen = append(chosen, ctrl.Options[idx].Value)
			}
		}
		return session.SetValue(ctrl.ID, chosen)
	}

	defaultIdx := -1
	if len(selected) > 0 {
		defaultIdx = selected[0]
	}
	for {
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      labels,
			DefaultIndex: defaultIdx,
			Help:         help,
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(ctrl.Options) {
			if err := r.driver.Info(ctx, fmt.Sprintf("%sInvalid %s selection", r.theme.ErrorPrefix, label)); err != nil {
				return err
			}
			continue
		}
		return session.SetValue(ctrl.ID, ctrl.Options[idx].Value)
	}
}

func (r *Renderer) promptArray(ctx context.Context, session render.Session, ctrl render.Control, label string, retry bool) error {
	if retry && ctrl.Error == "" {
		for _, row := range ctrl.Rows {
			for _, cell := range row.Cells {
				if cell.Error == "" {
					continue
				}
				if err := r.promptCell(ctx, session, label, row.Index, cell); err != nil {
					return err
				}
			}
		}
		return nil
	}

	for _, row := range ctrl.Rows {
		if err := r.promptRow(ctx, session, label, row); err != nil {
			return err
		}
	}
	if !ctrl.CanAddRow {
		return nil
	}

	for {
		more, err := r.driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Add another row to %s?", label)})
		if err != nil {
			return err
		}
		if !more {
			break
		}
		if err := session.AddRow(ctrl.ID); err != nil {
			return err
		}
		current, err := r.refresh(ctx, session, ctrl.ID)
		if err != nil {
			return err
		}
		if len(current.Rows) == 0 {
			break
		}
		if err := r.promptRow(ctx, session, label, current.Rows[len(current.Rows)-1]); err != nil {
			return err
		}
	}

	for {
		current, err := r.refresh(ctx, session, ctrl.ID)
		if err != nil {
			return err
		}
		var removable []render.RowView
		for _, row := range current.Rows {
			if row.Removable {
				removable = append(removable, row)
			}
		}
		if len(removable) == 0 {
			return nil
		}
		remove, err := r.driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Remove a row from %s?", label)})
		if err != nil {
			return err
		}
		if !remove {
			return nil
		}
		options := make([]string, len(removable))
		for i, row := range removable {
			options[i] = rowSummary(row)
		}
		idx, err := r.driver.Select(ctx, SelectConfig{Message: "Row to remove", Options: options, DefaultIndex: -1})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(removable) {
			continue
		}
		if err := session.RemoveRow(ctrl.ID, removable[idx].Index); err != nil {
			return err
		}
	}
}

func (r *Renderer) promptRow(ctx context.Context, session render.Session, label string, row render.RowView) error {
	for _, cell := range row.Cells {
		if err := r.promptCell(ctx, session, label, row.Index, cell); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) promptCell(ctx context.Context, session render.Session, label string, index int, cell render.CellView) error {
	raw, err := r.driver.Input(ctx, InputConfig{
		Message: fmt.Sprintf("%s #%d %s", label, index+1, cell.Key),
		Default: cell.Value,
	})
	if err != nil {
		return err
	}
	return session.SetValue(cell.Name, raw)
}

func (r *Renderer) refresh(ctx context.Context, session render.Session, id string) (render.Control, error) {
	view, err := session.View(ctx)
	if err != nil {
		return render.Control{}, fmt.Errorf("tui: build view: %w", err)
	}
	ctrl, ok := view.Control(id)
	if !ok {
		return render.Control{}, fmt.Errorf("tui: control %q disappeared", id)
	}
	return ctrl, nil
}

func rowSummary(row render.RowView) string {
	parts := make([]string, 0, len(row.Cells))
	for _, cell := range row.Cells {
		parts = append(parts, cell.Key+"="+cell.Value)
	}
	return fmt.Sprintf("#%d %s", row.Index+1, strings.Join(parts, ", "))
}

func autoHelp(help string) string {
	if help != "" {
		return help
	}
	return "Separate entries with commas"
}

// ContentType reports the MIME type Encode produces for format.
func ContentType(format OutputFormat) string {
	switch format {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Encode serialises collected values. Array rows are flattened to their
// row-scoped input names in the form and pretty formats.
func Encode(vals values.Values, format OutputFormat) ([]byte, error) {
	switch format {
	case OutputFormatFormURLEncoded:
		return []byte(flatten(vals).Encode()), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(vals)), nil
	case OutputFormatJSON, "":
		out, err := json.MarshalIndent(vals, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("tui: encode values: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("tui: unknown output format %q", format)
	}
}

func flatten(vals values.Values) url.Values {
	out := url.Values{}
	for _, key := range vals.Keys() {
		value := vals[key]
		if rows, ok := arrayfield.Rows(value); ok && value != nil {
			for index, row := range rows {
				for _, cell := range arrayfield.Keys(row) {
					out.Set(arrayfield.InputName(key, index, cell), values.String(row[cell]))
				}
			}
			continue
		}
		switch value.(type) {
		case []string, []any:
			for _, item := range values.Strings(value) {
				out.Add(key, item)
			}
		default:
			out.Set(key, values.String(value))
		}
	}
	return out
}

func prettyPrint(vals values.Values) string {
	flat := flatten(vals)
	keys := make([]string, 0, len(flat))
	for key := range flat {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&b, "%s=%s\n", key, strings.Join(flat[key], ", "))
	}
	return b.String()
}
