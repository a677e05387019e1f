package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/aer-io/vigilante/pkg/cluster"
	"github.com/aer-io/vigilante/pkg/executor"
	"github.com/aer-io/vigilante/pkg/orchestrator"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps an operation failure to an HTTP status. OpError
// carries an explicit Kind; anything else is a 500.
func writeError(w http.ResponseWriter, err error) {
	var opErr *cluster.OpError
	status := http.StatusInternalServerError
	if errors.As(err, &opErr) {
		switch opErr.Kind {
		case cluster.InvalidArgument:
			status = http.StatusBadRequest
		case cluster.NotFound:
			status = http.StatusNotFound
		case cluster.Unreachable:
			status = http.StatusBadGateway
		case cluster.Conflict:
			status = http.StatusConflict
		case cluster.PartialFailure:
			status = http.StatusMultiStatus
		case cluster.PermissionDenied:
			status = http.StatusForbidden
		}
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// resultStatus returns 200 when an OperationResult fully succeeded and
// 207 Multi-Status when any target failed, including when all of them did.
func resultStatus(result *cluster.OperationResult) int {
	if result.Success {
		return http.StatusOK
	}
	return http.StatusMultiStatus
}

func (s *Server) handleClusterStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.model.GetLatest())
}

func (s *Server) handleCollectionsInfo(w http.ResponseWriter, r *http.Request) {
	model := s.model.GetLatest()
	writeJSON(w, http.StatusOK, map[string]any{
		"collections": model.Collections,
		"issues":      model.Issues,
	})
}

func (s *Server) handleSnapshotsInfo(w http.ResponseWriter, r *http.Request) {
	model := s.model.GetLatest()
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshots": model.Snapshots,
	})
}

type replicateShardsRequest struct {
	CollectionName string         `json:"collectionName"`
	SourcePeerId   string         `json:"sourcePeerId"`
	TargetPeerId   string         `json:"targetPeerId"`
	ShardIds       []cluster.ShardId `json:"shardIds"`
	IsMove         bool           `json:"isMove"`
}

func (s *Server) handleReplicateShards(w http.ResponseWriter, r *http.Request) {
	var req replicateShardsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := s.executor.ReplicateOrMoveShards(r.Context(), executor.ReplicateShardsRequest{
		CollectionName: req.CollectionName,
		SourcePeerId:   req.SourcePeerId,
		TargetPeerId:   req.TargetPeerId,
		ShardIds:       req.ShardIds,
		IsMove:         req.IsMove,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, resultStatus(result), result)
}

type podRef struct {
	Namespace string `json:"namespace"`
	PodName   string `json:"podName"`
	Container string `json:"container"`
}

func (p podRef) toExecutor() executor.PodRef {
	return executor.PodRef{Namespace: p.Namespace, PodName: p.PodName, Container: p.Container}
}

type deleteCollectionRequest struct {
	CollectionName string        `json:"collectionName"`
	Mode           deletionType  `json:"deletionType"`
	Scope          deletionScope `json:"scope"`
	NodeUrl        string        `json:"nodeUrl"`
	Pod            podRef        `json:"pod"`
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	var req deleteCollectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := s.executor.DeleteCollection(r.Context(), executor.DeleteCollectionRequest{
		CollectionName: req.CollectionName,
		Mode:           executor.DeletionMode(req.Mode),
		Scope:          executor.DeletionScope(req.Scope),
		NodeUrl:        req.NodeUrl,
		Pod:            req.Pod.toExecutor(),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, resultStatus(result), result)
}

type createSnapshotRequest struct {
	CollectionName string        `json:"collectionName"`
	Scope          deletionScope `json:"scope"`
	NodeUrl        string        `json:"nodeUrl"`
}

func (s *Server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var req createSnapshotRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := s.executor.CreateSnapshot(r.Context(), executor.CreateSnapshotRequest{
		CollectionName: req.CollectionName,
		Scope:          executor.SnapshotScope(req.Scope),
		NodeUrl:        req.NodeUrl,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, resultStatus(result), result)
}

type deleteSnapshotRequest struct {
	CollectionName string         `json:"collectionName"`
	SnapshotName   string         `json:"snapshotName"`
	Source         snapshotSource `json:"source"`
	NodeUrl        string         `json:"nodeUrl"`
	Pod            podRef         `json:"pod"`
}

func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	var req deleteSnapshotRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := s.executor.DeleteSnapshot(r.Context(), executor.DeleteSnapshotRequest{
		CollectionName: req.CollectionName,
		SnapshotName:   req.SnapshotName,
		Source:         cluster.SnapshotSource(req.Source),
		NodeUrl:        req.NodeUrl,
		Pod:            req.Pod.toExecutor(),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, resultStatus(result), result)
}

type recoverSnapshotRequest struct {
	CollectionName string `json:"collectionName"`
	SnapshotName   string `json:"snapshotName"`
	NodeUrl        string `json:"nodeUrl"`
	Wait           bool   `json:"wait"`
}

func (s *Server) handleRecoverSnapshot(w http.ResponseWriter, r *http.Request) {
	var req recoverSnapshotRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := s.executor.RecoverFromSnapshot(r.Context(), executor.RecoverFromSnapshotRequest{
		CollectionName: req.CollectionName,
		SnapshotName:   req.SnapshotName,
		NodeUrl:        req.NodeUrl,
		Wait:           req.Wait,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, resultStatus(result), result)
}

type recoverFromURLRequest struct {
	CollectionName string `json:"collectionName"`
	SnapshotURL    string `json:"snapshotUrl"`
	Checksum       string `json:"checksum"`
	NodeUrl        string `json:"nodeUrl"`
	Wait           bool   `json:"wait"`
}

func (s *Server) handleRecoverFromURL(w http.ResponseWriter, r *http.Request) {
	var req recoverFromURLRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := s.executor.RecoverFromURL(r.Context(), executor.RecoverFromURLRequest{
		CollectionName: req.CollectionName,
		SnapshotURL:    req.SnapshotURL,
		Checksum:       req.Checksum,
		NodeUrl:        req.NodeUrl,
		Wait:           req.Wait,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, resultStatus(result), result)
}

type downloadSnapshotRequest struct {
	CollectionName string `json:"collectionName"`
	SnapshotName   string `json:"snapshotName"`
	NodeUrl        string `json:"nodeUrl"`
	Pod            podRef `json:"pod"`
}

func (s *Server) handleDownloadSnapshot(w http.ResponseWriter, r *http.Request) {
	var req downloadSnapshotRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+req.SnapshotName+"\"")
	setContentLength := func(n int64) {
		w.Header().Set("Content-Length", strconv.FormatInt(n, 10))
	}
	if err := s.executor.DownloadSnapshot(r.Context(), req.CollectionName, req.SnapshotName, req.NodeUrl, req.Pod.toExecutor(), w, setContentLength); err != nil {
		writeError(w, err)
		return
	}
}

type deletePodRequest struct {
	Namespace string `json:"namespace"`
	PodName   string `json:"podName"`
}

func (s *Server) handleDeletePod(w http.ResponseWriter, r *http.Request) {
	var req deletePodRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := s.executor.DeletePod(r.Context(), req.Namespace, req.PodName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, resultStatus(result), result)
}

type manageStatefulSetRequest struct {
	Namespace string        `json:"namespace"`
	Name      string        `json:"name"`
	Op        statefulSetOp `json:"op"`
	Replicas  int32         `json:"replicas"`
}

func (s *Server) handleManageStatefulSet(w http.ResponseWriter, r *http.Request) {
	var req manageStatefulSetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := s.executor.ManageStatefulSet(r.Context(), executor.ManageStatefulSetRequest{
		Namespace: req.Namespace,
		Name:      req.Name,
		Op:        orchestrator.StatefulSetOp(req.Op),
		Replicas:  req.Replicas,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, resultStatus(result), result)
}
