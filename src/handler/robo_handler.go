package handler

import (
	"context"
	"encoding/json"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"papertrader/src/model"
)

type settingsStore interface {
	FindBySubject(ctx context.Context, subjectID uint) (*model.RoboSettings, error)
	Upsert(ctx context.Context, settings *model.RoboSettings) error
}

// GetRoboSettingsHandler returns the subject's autonomous settings.
func GetRoboSettingsHandler(store settingsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjectID, ok := accountIDParam(w, r)
		if !ok {
			return
		}

		settings, err := store.FindBySubject(r.Context(), subjectID)
		if err != nil {
			logger.WithError(err).Error("failed to fetch robo settings")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if settings == nil {
			http.Error(w, "no settings for subject", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, settings)
	}
}

// UpdateRoboSettingsHandler creates or replaces the subject's settings.
func UpdateRoboSettingsHandler(store settingsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjectID, ok := accountIDParam(w, r)
		if !ok {
			return
		}

		var settings model.RoboSettings
		if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		settings.SubjectID = subjectID

		if settings.DefaultSide != "" && settings.DefaultSide != model.SideBuy && settings.DefaultSide != model.SideSell {
			http.Error(w, "default_side must be buy or sell", http.StatusBadRequest)
			return
		}

		if err := store.Upsert(r.Context(), &settings); err != nil {
			logger.WithError(err).Error("failed to update robo settings")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, settings)
	}
}
