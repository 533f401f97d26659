package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cluster-provisioner/internal/models"
	"cluster-provisioner/internal/repository"
	db "cluster-provisioner/pkg/db"
	"cluster-provisioner/pkg/log"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

const pgUniqueViolation = "23505"

type ClusterRepository struct {
	psql *db.PostgresDatastore
}

func NewClusterRepository(psql *db.PostgresDatastore) *ClusterRepository {
	return &ClusterRepository{
		psql: psql,
	}
}

func (repo *ClusterRepository) FindActiveByOrg(organizationID string) (*models.ProvisionedCluster, error) {
	var cluster models.ProvisionedCluster
	query := `SELECT * FROM provisioned_clusters
		WHERE organization_id = $1 AND status NOT IN ($2, $3)`

	err := repo.psql.DB.Get(&cluster, query, organizationID, models.StatusFailed, models.StatusDeleted)
	if errors.Is(err, sql.ErrNoRows) {
		repo.decorateLog(log.Logger.Debug, organizationID, "").Msg("No active provisioned cluster for organization")
		return nil, repository.ErrClusterNotFound
	}
	if err != nil {
		repo.decorateLog(log.Logger.Error, organizationID, "").Err(err).Msg("Failed to find active provisioned cluster")
		return nil, fmt.Errorf("failed to find active provisioned cluster: %w", err)
	}
	return &cluster, nil
}

func (repo *ClusterRepository) FindLatestByOrg(organizationID string) (*models.ProvisionedCluster, error) {
	var cluster models.ProvisionedCluster
	query := `SELECT * FROM provisioned_clusters
		WHERE organization_id = $1 AND status <> $2
		ORDER BY created_at DESC LIMIT 1`

	err := repo.psql.DB.Get(&cluster, query, organizationID, models.StatusDeleted)
	if errors.Is(err, sql.ErrNoRows) {
		repo.decorateLog(log.Logger.Debug, organizationID, "").Msg("No provisioned cluster for organization")
		return nil, repository.ErrClusterNotFound
	}
	if err != nil {
		repo.decorateLog(log.Logger.Error, organizationID, "").Err(err).Msg("Failed to find latest provisioned cluster")
		return nil, fmt.Errorf("failed to find latest provisioned cluster: %w", err)
	}
	return &cluster, nil
}

func (repo *ClusterRepository) Insert(cluster *models.ProvisionedCluster) error {
	query := `INSERT INTO provisioned_clusters (
			cluster_id, organization_id, project_id, project_name,
			remote_cluster_id, remote_cluster_name,
			provider, region, instance_size, database_name,
			status, status_message,
			secret_ref, invitation_ref, database_username,
			provisioning_started_at, provisioning_completed_at,
			created_at, updated_at, deleted_at
		) VALUES (
			:cluster_id, :organization_id, :project_id, :project_name,
			:remote_cluster_id, :remote_cluster_name,
			:provider, :region, :instance_size, :database_name,
			:status, :status_message,
			:secret_ref, :invitation_ref, :database_username,
			:provisioning_started_at, :provisioning_completed_at,
			:created_at, :updated_at, :deleted_at
		)`

	_, err := repo.psql.DB.NamedExec(query, cluster)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			repo.decorateLog(log.Logger.Warn, cluster.OrganizationID, cluster.ClusterID).
				Msg("Active provisioned cluster already exists for organization")
			return repository.ErrDuplicateActiveCluster
		}
		repo.decorateLog(log.Logger.Error, cluster.OrganizationID, cluster.ClusterID).Err(err).
			Msg("Failed to insert provisioned cluster")
		return fmt.Errorf("failed to insert provisioned cluster: %w", err)
	}
	repo.decorateLog(log.Logger.Debug, cluster.OrganizationID, cluster.ClusterID).
		Msg("Inserted provisioned cluster")
	return nil
}

// UpdateStatus persists a status transition together with any incrementally
// populated identifier fields. Only non-nil fields of the update are written.
func (repo *ClusterRepository) UpdateStatus(
	clusterID string,
	status models.ProvisionStatus,
	message string,
	fields models.ClusterUpdate,
) error {
	setClauses := []string{"status = :status", "status_message = :status_message", "updated_at = :updated_at"}
	params := map[string]interface{}{
		"cluster_id":     clusterID,
		"status":         status,
		"status_message": message,
		"updated_at":     time.Now().UTC(),
	}

	addClause := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = :%s", column, column))
		params[column] = value
	}

	if fields.ProjectID != nil {
		addClause("project_id", *fields.ProjectID)
	}
	if fields.ProjectName != nil {
		addClause("project_name", *fields.ProjectName)
	}
	if fields.RemoteClusterID != nil {
		addClause("remote_cluster_id", *fields.RemoteClusterID)
	}
	if fields.RemoteClusterName != nil {
		addClause("remote_cluster_name", *fields.RemoteClusterName)
	}
	if fields.SecretRef != nil {
		addClause("secret_ref", *fields.SecretRef)
	}
	if fields.InvitationRef != nil {
		addClause("invitation_ref", *fields.InvitationRef)
	}
	if fields.DatabaseUsername != nil {
		addClause("database_username", *fields.DatabaseUsername)
	}
	if fields.ProvisioningCompletedAt != nil {
		addClause("provisioning_completed_at", *fields.ProvisioningCompletedAt)
	}
	if fields.DeletedAt != nil {
		addClause("deleted_at", *fields.DeletedAt)
	}

	query := fmt.Sprintf(
		"UPDATE provisioned_clusters SET %s WHERE cluster_id = :cluster_id",
		strings.Join(setClauses, ", "),
	)

	result, err := repo.psql.DB.NamedExec(query, params)
	if err != nil {
		repo.decorateLog(log.Logger.Error, "", clusterID).Err(err).
			Str("status", status.String()).
			Msg("Failed to update provisioned cluster status")
		return fmt.Errorf("failed to update provisioned cluster status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return repository.ErrClusterNotFound
	}

	repo.decorateLog(log.Logger.Debug, "", clusterID).
		Str("status", status.String()).
		Msg("Updated provisioned cluster status")
	return nil
}

func (repo *ClusterRepository) FindByID(clusterID string) (*models.ProvisionedCluster, error) {
	var cluster models.ProvisionedCluster
	query := `SELECT * FROM provisioned_clusters WHERE cluster_id = $1`

	err := repo.psql.DB.Get(&cluster, query, clusterID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrClusterNotFound
	}
	if err != nil {
		repo.decorateLog(log.Logger.Error, "", clusterID).Err(err).Msg("Failed to find provisioned cluster")
		return nil, fmt.Errorf("failed to find provisioned cluster: %w", err)
	}
	return &cluster, nil
}

func (repo *ClusterRepository) FindAll() ([]models.ProvisionedCluster, error) {
	clusters := make([]models.ProvisionedCluster, 0)
	query := `SELECT * FROM provisioned_clusters ORDER BY created_at DESC`
	err := repo.psql.DB.Select(&clusters, query)
	if err != nil {
		log.Logger.Error().Err(err).Msg("Failed to list provisioned clusters")
		return clusters, fmt.Errorf("failed to list provisioned clusters: %w", err)
	}
	return clusters, nil
}

func (repo *ClusterRepository) Close() error {
	return repo.psql.Close()
}

func (repo *ClusterRepository) decorateLog(eventFactory func() *zerolog.Event, organizationID, clusterID string) *zerolog.Event {
	event := eventFactory()
	if organizationID != "" {
		event = event.Str("organization_id", organizationID)
	}
	if clusterID != "" {
		event = event.Str("cluster_id", clusterID)
	}
	return event
}
