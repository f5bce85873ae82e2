package web

import (
	"context"
	"net/http"

	"github.com/ghaggin/fluidbalance/internal/api"
	"github.com/ghaggin/fluidbalance/internal/notify"
	"github.com/go-chi/chi/v5"
)

type catalogItem struct {
	ID   int64
	Name string
}

type catalogPage struct {
	Heading string
	Base    string
	Items   []catalogItem
}

// catalog adapts the medicines and vital signs services, which differ only
// in their record type and wording.
type catalog struct {
	heading string
	list    func(ctx context.Context) ([]catalogItem, error)
	create  func(ctx context.Context, name string, userID int64) error
	update  func(ctx context.Context, id int64, name string, userID int64) error
	remove  func(ctx context.Context, id int64) error

	loadFailed, created, createFailed, updated, updateFailed, deleted, deleteFailed string
}

func medicineCatalog(svc *api.Services) catalog {
	return catalog{
		heading: "Medicamentos",
		list: func(ctx context.Context) ([]catalogItem, error) {
			meds, err := svc.Medicines.List(ctx)
			items := make([]catalogItem, 0, len(meds))
			for _, m := range meds {
				items = append(items, catalogItem{ID: m.ID, Name: m.Name})
			}
			return items, err
		},
		create: func(ctx context.Context, name string, userID int64) error {
			_, err := svc.Medicines.Create(ctx, name, userID)
			return err
		},
		update: func(ctx context.Context, id int64, name string, userID int64) error {
			_, err := svc.Medicines.Update(ctx, id, name, userID)
			return err
		},
		remove: svc.Medicines.Delete,

		loadFailed:   "No pudimos cargar el catálogo de medicamentos.",
		created:      "Medicina registrada exitosamente",
		createFailed: "No fue posible registrar la medicina. Intenta nuevamente.",
		updated:      "Medicina actualizada exitosamente",
		updateFailed: "No fue posible actualizar la medicina. Intenta nuevamente.",
		deleted:      "Medicina eliminada exitosamente",
		deleteFailed: "No fue posible eliminar la medicina. Intenta nuevamente.",
	}
}

func vitalSignCatalog(svc *api.Services) catalog {
	return catalog{
		heading: "Signos vitales",
		list: func(ctx context.Context) ([]catalogItem, error) {
			signs, err := svc.VitalSigns.List(ctx)
			items := make([]catalogItem, 0, len(signs))
			for _, s := range signs {
				items = append(items, catalogItem{ID: s.ID, Name: s.Name})
			}
			return items, err
		},
		create: func(ctx context.Context, name string, userID int64) error {
			_, err := svc.VitalSigns.Create(ctx, name, userID)
			return err
		},
		update: func(ctx context.Context, id int64, name string, userID int64) error {
			_, err := svc.VitalSigns.Update(ctx, id, name, userID)
			return err
		},
		remove: svc.VitalSigns.Delete,

		loadFailed:   "No pudimos cargar el catálogo de signos vitales.",
		created:      "Signo vital registrado exitosamente",
		createFailed: "No fue posible registrar el signo vital. Intenta nuevamente.",
		updated:      "Signo vital actualizado exitosamente",
		updateFailed: "No fue posible actualizar el signo vital. Intenta nuevamente.",
		deleted:      "Signo vital eliminado exitosamente",
		deleteFailed: "No fue posible eliminar el signo vital. Intenta nuevamente.",
	}
}

func (h *handlers) catalogRoutes(r chi.Router, path string, c catalog) {
	base := "/dashboard" + path

	r.Get(path, func(w http.ResponseWriter, r *http.Request) {
		items, err := c.list(r.Context())
		if err != nil {
			h.failure(r, err, c.loadFailed)
		}
		h.render(w, r, http.StatusOK, "catalog.html", c.heading, catalogPage{
			Heading: c.heading,
			Base:    base,
			Items:   items,
		})
	})

	r.Post(path, func(w http.ResponseWriter, r *http.Request) {
		defer redirect(w, r, base)
		if err := r.ParseForm(); err != nil {
			h.failure(r, err, c.createFailed)
			return
		}
		userID, _ := h.session.UserID()
		if err := c.create(r.Context(), r.PostForm.Get("name"), userID); err != nil {
			h.failure(r, err, c.createFailed)
			return
		}
		h.success(r, c.created)
	})

	r.Post(path+"/{itemID}/update", func(w http.ResponseWriter, r *http.Request) {
		defer redirect(w, r, base)
		id, ok := urlID(r, "itemID")
		if !ok {
			h.flash.Flash(r.Context(), notify.LevelError, c.updateFailed)
			return
		}
		if err := r.ParseForm(); err != nil {
			h.failure(r, err, c.updateFailed)
			return
		}
		userID, _ := h.session.UserID()
		if err := c.update(r.Context(), id, r.PostForm.Get("name"), userID); err != nil {
			h.failure(r, err, c.updateFailed)
			return
		}
		h.success(r, c.updated)
	})

	r.Post(path+"/{itemID}/delete", func(w http.ResponseWriter, r *http.Request) {
		defer redirect(w, r, base)
		id, ok := urlID(r, "itemID")
		if !ok {
			h.flash.Flash(r.Context(), notify.LevelError, c.deleteFailed)
			return
		}
		if err := c.remove(r.Context(), id); err != nil {
			h.failure(r, err, c.deleteFailed)
			return
		}
		h.success(r, c.deleted)
	})
}
