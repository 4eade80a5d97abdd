package web

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/atlassian/gmetricd/pkg/healthcheck"
)

type healthReport struct {
	OK     []string `json:"ok"`
	Failed []string `json:"failed"`
}

func runChecks(checks []healthcheck.HealthcheckFunc) healthReport {
	report := healthReport{
		OK:     []string{},
		Failed: []string{},
	}
	for _, check := range checks {
		msg, status := check()
		if status == healthcheck.Healthy {
			report.OK = append(report.OK, msg)
		} else {
			report.Failed = append(report.Failed, msg)
		}
	}
	return report
}

// checksHandler answers 200 if every check passes, 500 otherwise, with the messages of the checks as JSON.
func checksHandler(checks []healthcheck.HealthcheckFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		report := runChecks(checks)
		w.Header().Set("content-type", "application/json")
		status := http.StatusOK
		if len(report.Failed) > 0 {
			status = http.StatusInternalServerError
		}
		w.WriteHeader(status)
		_ = jsoniter.NewEncoder(w).Encode(&report)
	}
}
