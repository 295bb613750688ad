package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/bytedance/sonic"

	"github.com/lezoo/keep/internal/app"
	"github.com/lezoo/keep/internal/resource"
)

// render writes v as indented JSON in --json mode, otherwise calls text with
// a tab-aligned writer.
func (e *env) render(v any, text func(w io.Writer)) error {
	if e.jsonOut {
		raw, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		_, err = fmt.Fprintln(e.stdout, string(raw))
		return err
	}
	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

// message prints a one-line confirmation, or {"message": ...} in --json mode.
func (e *env) message(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return e.render(map[string]string{"message": msg}, func(w io.Writer) {
		_, _ = fmt.Fprintln(w, msg)
	})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func parseIDs(values []string) ([]int64, error) {
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := parseID(v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// refresh runs each refresh in order. A missing session stops the command;
// any other failure is logged and the manager's fallback state is used.
func refresh(ctx context.Context, a *app.App, steps ...func(context.Context) error) error {
	for _, step := range steps {
		if err := step(ctx); err != nil {
			if errors.Is(err, resource.ErrNotAuthenticated) {
				return err
			}
			a.Log.WithError(err).Warn("refresh failed; showing cached data")
		}
	}
	return nil
}

func categoryNames(cats []resource.Category) string {
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

func check(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}
