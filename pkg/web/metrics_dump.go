package web

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/atlassian/gmetricd/pkg/persist"
	"github.com/atlassian/gmetricd/pkg/store"
)

type metricsDumper struct {
	logger logrus.FieldLogger
	store  *store.Store
}

// metrics writes the content of the store in the snapshot format.
func (md *metricsDumper) metrics(resp http.ResponseWriter, req *http.Request) {
	data, err := persist.Encode(md.store.Snapshot())
	if err != nil {
		md.logger.WithError(err).Error("failed to encode metrics")
		http.Error(resp, "failed to encode metrics", http.StatusInternalServerError)
		return
	}
	resp.Header().Set("content-type", "application/json")
	resp.WriteHeader(http.StatusOK)
	_, _ = resp.Write(data)
}
