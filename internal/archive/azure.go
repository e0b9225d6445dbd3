package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/azure/mentions-dashboard/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// blobUploader is the subset of *azblob.Client used by AzureArchive
type blobUploader interface {
	UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

// AzureArchive writes report snapshots as JSON blobs to Azure Blob Storage
type AzureArchive struct {
	client        blobUploader
	containerName string
}

// Ensure AzureArchive implements ArchiveInterface
var _ ArchiveInterface = (*AzureArchive)(nil)

// NewAzureArchive creates a blob archive using the default Azure credential chain
func NewAzureArchive(ctx context.Context, accountName, containerName string) (*AzureArchive, error) {
	if accountName == "" {
		return nil, fmt.Errorf("storage account name is required")
	}

	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)
	client, err := azblob.NewClient(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
	}

	if err := ensureContainer(ctx, client, containerName); err != nil {
		return nil, fmt.Errorf("failed to ensure container exists: %w", err)
	}

	return &AzureArchive{client: client, containerName: containerName}, nil
}

func ensureContainer(ctx context.Context, client *azblob.Client, containerName string) error {
	_, err := client.CreateContainer(ctx, containerName, nil)
	if err != nil {
		if !strings.Contains(err.Error(), "ContainerAlreadyExists") {
			return fmt.Errorf("failed to create container: %w", err)
		}
		logrus.Debugf("Container %s already exists", containerName)
	} else {
		logrus.Infof("Created container %s", containerName)
	}
	return nil
}

// blobName lays snapshots out by generation day, e.g. 2026/10/16/report-12-<uuid>.json
func blobName(report *models.Report) string {
	return fmt.Sprintf("%s/report-%d-%s.json",
		report.GeneratedAt.UTC().Format("2006/01/02"), report.ID, uuid.NewString())
}

// ArchiveReport uploads the report as an indented JSON document
func (a *AzureArchive) ArchiveReport(ctx context.Context, report *models.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report %d: %w", report.ID, err)
	}

	name := blobName(report)
	_, err = a.client.UploadBuffer(ctx, a.containerName, name, data, &azblob.UploadBufferOptions{
		BlockSize:   int64(1024 * 1024),
		Concurrency: 3,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload blob %s: %w", name, err)
	}

	logrus.Infof("Archived report %d as %s", report.ID, name)
	return name, nil
}
