package admin

import (
	"context"
	"errors"
	"maps"
	"slices"
	"time"

	"onlyhate/internal/catalog"
)

var now = time.Now

// Form is the rendering surface every entity form offers.
type Form interface {
	Kind() catalog.Kind
	Title() string
	Editing() bool
	Open() bool
	Fields() []Field
	Set(name, raw string) error
	Errors() map[string]string
	Submit(ctx context.Context) error
	Cancel()
}

var (
	_ Form = (*BandForm)(nil)
	_ Form = (*ReleaseForm)(nil)
	_ Form = (*ProductForm)(nil)
)

// form is the draft state shared by the entity forms. id is empty while creating.
type form[T, P any] struct {
	kind  catalog.Kind
	id    string
	draft T
	open  bool
	rules []catalog.Rule[T]
	patch func(*T, bool) P
	save  func(context.Context, string, P) error

	// errs holds the field errors of the last submit; rejected holds raw
	// input that could not be parsed and has not been corrected since.
	errs     map[string]string
	rejected map[string]string
}

func newForm[T, P any](kind catalog.Kind, id string, draft T, rules []catalog.Rule[T], patch func(*T, bool) P, save func(context.Context, string, P) error) form[T, P] {
	return form[T, P]{
		kind:     kind,
		id:       id,
		draft:    draft,
		open:     true,
		rules:    rules,
		patch:    patch,
		save:     save,
		errs:     map[string]string{},
		rejected: map[string]string{},
	}
}

// Kind reports which collection the form writes to.
func (f *form[T, P]) Kind() catalog.Kind { return f.kind }

// ID is the id being edited, or empty for a new entity.
func (f *form[T, P]) ID() string { return f.id }

// Editing reports whether submit updates an existing entity.
func (f *form[T, P]) Editing() bool { return f.id != "" }

// Open reports whether the form still accepts input.
func (f *form[T, P]) Open() bool { return f.open }

// Draft returns the in-progress entity.
func (f *form[T, P]) Draft() T { return f.draft }

// Errors returns the current per-field errors.
func (f *form[T, P]) Errors() map[string]string {
	out := maps.Clone(f.errs)
	maps.Copy(out, f.rejected)
	return out
}

// reject records raw input that could not be applied to field.
func (f *form[T, P]) reject(field string, err error) error {
	f.rejected[field] = err.Error()
	return inputError(field, "%v", err)
}

// accept clears any error recorded for field.
func (f *form[T, P]) accept(field string) {
	delete(f.rejected, field)
	delete(f.errs, field)
}

// edit runs fn against the draft if the form is still open.
func (f *form[T, P]) edit(field string, fn func(*T)) error {
	if !f.open {
		return ErrClosed
	}
	fn(&f.draft)
	f.accept(field)
	return nil
}

// Submit validates the draft and hands it to the save callback. On failure
// the form stays open and Errors names the failing fields; on success it closes.
func (f *form[T, P]) Submit(ctx context.Context) error {
	if !f.open {
		return ErrClosed
	}

	if err := f.validate(); err != nil {
		return err
	}

	if err := f.save(ctx, f.id, f.patch(&f.draft, f.Editing())); err != nil {
		var verr *catalog.ValidationError
		if errors.As(err, &verr) {
			f.errs = verr.Map()
		}
		return err
	}

	f.errs = map[string]string{}
	f.open = false
	return nil
}

func (f *form[T, P]) validate() error {
	f.errs = map[string]string{}
	var fields []catalog.FieldError

	err := catalog.Validate(f.kind, &f.draft, f.rules)
	var verr *catalog.ValidationError
	if errors.As(err, &verr) {
		fields = append(fields, verr.Fields...)
	}
	for _, name := range slices.Sorted(maps.Keys(f.rejected)) {
		if !slices.ContainsFunc(fields, func(fe catalog.FieldError) bool { return fe.Field == name }) {
			fields = append(fields, catalog.FieldError{Field: name, Message: f.rejected[name]})
		}
	}
	if len(fields) == 0 {
		return nil
	}

	for _, fe := range fields {
		f.errs[fe.Field] = fe.Message
	}
	return &catalog.ValidationError{Kind: f.kind, Fields: fields}
}

// Cancel closes the form and throws the draft away.
func (f *form[T, P]) Cancel() {
	var zero T
	f.draft = zero
	f.open = false
	f.errs = map[string]string{}
	f.rejected = map[string]string{}
}

func (f *form[T, P]) fieldError(name string) string {
	if msg, ok := f.rejected[name]; ok {
		return msg
	}
	return f.errs[name]
}

func ptr[V any](v V) *V { return &v }

func textRule[T any](field string, get func(*T) string) catalog.Rule[T] {
	return catalog.Rule[T]{Field: field, Check: func(v *T) string { return catalog.RequireText(get(v)) }}
}
