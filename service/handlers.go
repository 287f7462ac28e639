package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// createHealthcheckHandler creates a health check handler function that
// will respond 200 ok if the bundle gateway is able to connect to
// it's dependencies and functioning as expected
func createHealthcheckHandler(service *BundleService) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var combinedErrors error

		service.Debug().Msg("/healthcheck called")

		// check that the database is reachable
		err := service.Database.HealthCheck()
		if err != nil {
			service.Logger.Error().
				Err(err).
				Msg("database healthcheck failed")

			errMsg := fmt.Errorf("bundle gateway unable to connect to database")
			combinedErrors = errors.Join(combinedErrors, errMsg)
		}

		if service.Counters != nil {
			// check that the upstream stats store is reachable
			err := service.Counters.Healthcheck(r.Context())
			if err != nil {
				service.Logger.Error().
					Err(err).
					Msg("upstream stats healthcheck failed")

				errMsg := fmt.Errorf("bundle gateway unable to connect to upstream stats store: %v", err)
				combinedErrors = errors.Join(combinedErrors, errMsg)
			}
		}

		if combinedErrors != nil {
			w.WriteHeader(http.StatusInternalServerError)

			w.Write([]byte(combinedErrors.Error()))

			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("bundle gateway is healthy"))
	}
}

// createServicecheckHandler creates a service check handler function that
// will respond 200 ok if the bundle gateway is running
func createServicecheckHandler(service *BundleService) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		service.Debug().Msg("/servicecheck called")

		w.WriteHeader(http.StatusOK)

		w.Write([]byte("bundle gateway is in service"))
	}
}

// createDatabaseStatusHandler creates a database status handler
// function responding to requests for the number of stored
// bundle request metrics
func createDatabaseStatusHandler(service *BundleService) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		service.Debug().Msg("/status/database called")

		count, err := service.Database.CountBundleRequestMetrics(r.Context())

		if err != nil {
			service.Error().Msg(fmt.Sprintf("error %s counting bundle request metrics", err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		response := DatabaseStatusResponse{
			TotalBundleRequestMetrics: count,
		}

		if err := MarshalJSONResponse(&response, w); err != nil {
			service.Error().Msg(fmt.Sprintf("error %s encoding %+v to json", err, response))
		}
	}
}

// createUpstreamStatsHandler creates a handler responding with the
// success and failure counters of the backend host named by the `host` query parameter
func createUpstreamStatsHandler(service *BundleService) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		service.Debug().Msg("/status/upstreams called")

		host := r.URL.Query().Get("host")
		if host == "" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("host query parameter is required"))
			return
		}

		response := UpstreamStatsResponse{
			Host:          host,
			WindowSeconds: service.config.UpstreamStatsWindowSeconds,
		}

		var err error

		response.Success, err = service.Counters.Get(r.Context(), UpstreamStatsKey(service.config.UpstreamStatsPrefix, host, UpstreamStatsSuccess))
		if err == nil {
			response.Failure, err = service.Counters.Get(r.Context(), UpstreamStatsKey(service.config.UpstreamStatsPrefix, host, UpstreamStatsFailure))
		}

		if err != nil {
			service.Error().Msg(fmt.Sprintf("error %s getting upstream stats for %s", err, host))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		if err := MarshalJSONResponse(&response, w); err != nil {
			service.Error().Msg(fmt.Sprintf("error %s encoding %+v to json", err, response))
		}
	}
}

// MarshalJSONResponse marshals an interface into the response body and sets JSON content type headers
func MarshalJSONResponse(obj interface{}, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		return err
	}
	return nil
}
