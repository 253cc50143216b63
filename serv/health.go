package serv

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

var healthyResponse = []byte("All's Well")

func healthV1Handler(s *MusicService) http.Handler {
	h := func(w http.ResponseWriter, r *http.Request) {
		fi, err := s.fs.Stat(s.root)
		if err == nil && !fi.IsDir() {
			err = fmt.Errorf("not a directory: %s", s.root)
		}

		if err != nil {
			s.zlog.Error("Health Check", zap.Error(err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		_, _ = w.Write(healthyResponse)
	}

	return http.HandlerFunc(h)
}
