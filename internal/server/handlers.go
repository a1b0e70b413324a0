package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/goliatone/go-healthform/pkg/controller"
	"github.com/goliatone/go-healthform/pkg/model"
	"github.com/goliatone/go-healthform/pkg/render"
)

// schemaField names the hidden input that ties a posted form to its schema.
const schemaField = "schema"

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	state := controller.State{Status: controller.StatusIdle, Values: model.FormValues{}}
	s.writeState(w, r, http.StatusOK, state, s.formOptions())
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	// Forms rendered from another schema are served again, never submitted.
	if posted := r.PostForm.Get(schemaField); posted != "" && posted != s.schema.Name() {
		s.logger.Info("stale form rejected", zap.String("schema", posted))
		state := controller.State{Status: controller.StatusIdle, Values: model.FormValues{}}
		s.writeState(w, r, http.StatusConflict, state, s.formOptions())
		return
	}

	form := s.newController(valuesFromForm(s.schema, r.PostForm))
	state := s.submit(r, form)
	if state.Status == controller.StatusIdle {
		s.writeState(w, r, http.StatusUnprocessableEntity, state, s.formOptions())
		return
	}

	id := s.store.Create(form)
	s.logger.Info("submission started",
		zap.String("session", id),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	)
	http.Redirect(w, r, submissionPath(id), http.StatusSeeOther)
}

func (s *Server) handleSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	form, ok := s.store.Get(id)
	if !ok {
		s.writeMissing(w, r)
		return
	}

	state := form.State()
	opts := render.Options{}
	switch state.Status {
	case controller.StatusPending:
		opts.RefreshSeconds = s.refresh
	case controller.StatusError:
		opts.RetryAction = submissionPath(id) + "/retry"
	}
	s.writeState(w, r, http.StatusOK, state, opts)
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	form, ok := s.store.Get(id)
	if !ok {
		s.writeMissing(w, r)
		return
	}

	if form.State().Status == controller.StatusError {
		form.Reset()
		state := s.submit(r, form)
		s.logger.Info("submission retried",
			zap.String("session", id),
			zap.Stringer("status", state.Status),
		)
	}
	http.Redirect(w, r, submissionPath(id), http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) formOptions() render.Options {
	return render.Options{
		Hidden: render.MergeHiddenFields(nil, render.Hidden(schemaField, s.schema.Name())),
	}
}

func (s *Server) newController(values model.FormValues) *controller.Controller {
	options := []controller.Option{
		controller.WithLogger(s.logger),
		controller.WithValues(values),
	}
	if s.metrics != nil {
		options = append(options, controller.WithMetrics(s.metrics))
	}
	return controller.New(s.schema, s.submitter, options...)
}

// submit starts the prediction request outside the HTTP request's lifetime.
// The request context keeps its values (request id) and is cancelled when the
// server stops.
func (s *Server) submit(r *http.Request, form *controller.Controller) controller.State {
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	stop := context.AfterFunc(s.baseCtx, cancel)
	state := form.Submit(ctx)
	go func() {
		_, _ = form.Wait(ctx)
		stop()
		cancel()
	}()
	return state
}

func (s *Server) writeState(w http.ResponseWriter, r *http.Request, status int, state controller.State, opts render.Options) {
	body, err := s.presenter.Present(r.Context(), s.schema, state, opts)
	if err != nil {
		s.logger.Error("render failed", zap.Error(err), zap.String("request_id", middleware.GetReqID(r.Context())))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", s.presenter.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (s *Server) writeMissing(w http.ResponseWriter, r *http.Request) {
	body, err := s.presenter.PresentMissing(r.Context(), s.schema)
	if err != nil {
		s.logger.Error("render failed", zap.Error(err))
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", s.presenter.ContentType())
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(body)
}

// valuesFromForm keeps only schema fields; blank inputs stay blank so the
// validator reports them as required.
func valuesFromForm(schema *model.Schema, form url.Values) model.FormValues {
	values := make(model.FormValues, schema.Len())
	for _, name := range schema.Names() {
		if raw, ok := form[name]; ok && len(raw) > 0 {
			values[name] = strings.TrimSpace(raw[0])
		}
	}
	return values
}

func submissionPath(id string) string {
	return "/submissions/" + url.PathEscape(id)
}
