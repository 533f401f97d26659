package controlplane

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cluster-provisioner/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler) (*HTTPClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewHTTPClient(&config.ControlPlane{
		BaseURL:        server.URL,
		PublicKey:      "pub",
		PrivateKey:     "priv",
		OrganizationID: "org-parent-1",
		RequestTimeout: 5 * time.Second,
	})
	return client, server
}

func TestGetProjectByName(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/groups/byName/tenant-org_abc123", r.URL.Path)

		username, password, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "pub", username)
		assert.Equal(t, "priv", password)

		fmt.Fprint(w, `{"id":"proj-1","name":"tenant-org_abc123","orgId":"org-parent-1","clusterCount":1}`)
	}))

	project, err := client.GetProjectByName(context.Background(), "tenant-org_abc123")

	require.NoError(t, err)
	assert.Equal(t, "proj-1", project.ID)
	assert.Equal(t, "tenant-org_abc123", project.Name)
	assert.Equal(t, 1, project.ClusterCount)
}

func TestGetProjectByNameNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"errorCode":"GROUP_NOT_FOUND","detail":"no group with that name"}`)
	}))

	_, err := client.GetProjectByName(context.Background(), "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "GROUP_NOT_FOUND", apiErr.Code)
	assert.Equal(t, "no group with that name", apiErr.Detail)
}

func TestCreateDatabaseUserAlreadyExists(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"errorCode":"USERNAME_ALREADY_EXISTS","detail":"user exists"}`)
	}))

	err := client.CreateDatabaseUser(context.Background(), "proj-1", DatabaseUserSpec{
		Username: "dbuser_g_abc123", Password: "x", DatabaseName: "app", ClusterName: "cluster0",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestDoRetriesTransientFailures(t *testing.T) {
	var attempts atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"errorCode":"UNEXPECTED_ERROR","detail":"try again"}`)
			return
		}
		fmt.Fprint(w, `{"id":"proj-1","name":"p"}`)
	}))

	project, err := client.GetProjectByName(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, "proj-1", project.ID)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestDoDoesNotRetryClientErrors(t *testing.T) {
	var attempts atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"errorCode":"INVALID_ATTRIBUTE","detail":"bad name"}`)
	}))

	_, err := client.GetProjectByName(context.Background(), "p")

	require.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestListClusters(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/groups/proj-1/clusters", r.URL.Path)
		fmt.Fprint(w, `{"results":[{"id":"c-1","name":"cluster0","stateName":"IDLE",
			"connectionStrings":{"standardSrv":"mongodb+srv://cluster0.abc.example.net"}}],"totalCount":1}`)
	}))

	clusters, err := client.ListClusters(context.Background(), "proj-1")

	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, "cluster0", clusters[0].Name)
	assert.True(t, clusters[0].IsReady())
}

func TestWaitUntilClusterReady(t *testing.T) {
	var polls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if polls.Add(1) < 3 {
			fmt.Fprint(w, `{"name":"cluster0","stateName":"CREATING","connectionStrings":{}}`)
			return
		}
		fmt.Fprint(w, `{"name":"cluster0","stateName":"IDLE",
			"connectionStrings":{"standardSrv":"mongodb+srv://cluster0.abc.example.net"}}`)
	}))

	cluster, err := client.WaitUntilClusterReady(
		context.Background(), "proj-1", "cluster0", time.Second, 10*time.Millisecond,
	)

	require.NoError(t, err)
	assert.True(t, cluster.IsReady())
	assert.GreaterOrEqual(t, polls.Load(), int32(3))
}

func TestWaitUntilClusterReadyTimeout(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"name":"cluster0","stateName":"CREATING","connectionStrings":{}}`)
	}))

	_, err := client.WaitUntilClusterReady(
		context.Background(), "proj-1", "cluster0", 50*time.Millisecond, 10*time.Millisecond,
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWaitTimeout)
}

func TestClusterIsReady(t *testing.T) {
	tests := []struct {
		name    string
		cluster Cluster
		ready   bool
	}{
		{
			name: "idle with connection string",
			cluster: Cluster{
				StateName:         ClusterStateIdle,
				ConnectionStrings: ConnectionStrings{StandardSrv: "mongodb+srv://x"},
			},
			ready: true,
		},
		{
			name:    "idle without connection string",
			cluster: Cluster{StateName: ClusterStateIdle},
			ready:   false,
		},
		{
			name: "still creating",
			cluster: Cluster{
				StateName:         ClusterStateCreating,
				ConnectionStrings: ConnectionStrings{StandardSrv: "mongodb+srv://x"},
			},
			ready: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ready, tt.cluster.IsReady())
		})
	}
}
