// Package drive fetches hotel snapshot documents from a Google Drive
// folder. The upload collaborator drops one {hotel}_data.json and one
// {hotel}_config.json per hotel; the importer pulls complete pairs.
package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	dataSuffix   = "_data.json"
	configSuffix = "_config.json"
)

type Service struct {
	srv *drive.Service
}

func NewService(credentialsJSON string) (*Service, error) {
	config, err := google.JWTConfigFromJSON(
		[]byte(credentialsJSON),
		drive.DriveReadonlyScope,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %v", err)
	}

	client := config.Client(context.Background())

	srv, err := drive.NewService(context.Background(), option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Drive client: %v", err)
	}

	return &Service{srv: srv}, nil
}

type File struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
	Size         int64  `json:"size,string,omitempty"`
}

// DocumentPair is one hotel's pair of snapshot documents.
type DocumentPair struct {
	HotelID    string
	DataFile   *File
	ConfigFile *File
}

func (s *Service) ListFiles(folderID string) ([]*File, error) {
	var files []*File

	if folderID == "" {
		folderID = "root"
	}

	result, err := s.srv.Files.List().
		Q(fmt.Sprintf("'%s' in parents and trashed=false", folderID)).
		Fields("files(id, name, mimeType, modifiedTime, size)").
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve files: %v", err)
	}

	for _, f := range result.Files {
		files = append(files, &File{
			ID:           f.Id,
			Name:         f.Name,
			MimeType:     f.MimeType,
			ModifiedTime: f.ModifiedTime,
			Size:         f.Size,
		})
	}

	return files, nil
}

// ListDocumentPairs scans a folder and pairs up the data/config documents
// per hotel. Hotels missing either half of the pair are skipped; a
// snapshot can only be built from both.
func (s *Service) ListDocumentPairs(folderID string) ([]DocumentPair, error) {
	files, err := s.ListFiles(folderID)
	if err != nil {
		return nil, err
	}

	pairs := make(map[string]*DocumentPair)
	for _, f := range files {
		switch {
		case strings.HasSuffix(f.Name, dataSuffix):
			hotelID := strings.TrimSuffix(f.Name, dataSuffix)
			pair := pairFor(pairs, hotelID)
			pair.DataFile = f
		case strings.HasSuffix(f.Name, configSuffix):
			hotelID := strings.TrimSuffix(f.Name, configSuffix)
			pair := pairFor(pairs, hotelID)
			pair.ConfigFile = f
		}
	}

	complete := make([]DocumentPair, 0, len(pairs))
	for _, pair := range pairs {
		if pair.DataFile != nil && pair.ConfigFile != nil {
			complete = append(complete, *pair)
		}
	}
	sort.Slice(complete, func(i, j int) bool { return complete[i].HotelID < complete[j].HotelID })
	return complete, nil
}

func pairFor(pairs map[string]*DocumentPair, hotelID string) *DocumentPair {
	if pair, ok := pairs[hotelID]; ok {
		return pair
	}
	pair := &DocumentPair{HotelID: hotelID}
	pairs[hotelID] = pair
	return pair
}

func (s *Service) DownloadFile(fileID string, w io.Writer) error {
	resp, err := s.srv.Files.Get(fileID).Download()
	if err != nil {
		return fmt.Errorf("unable to download file: %v", err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("unable to write file contents: %v", err)
	}
	return nil
}

// DownloadBytes fetches a file's full contents.
func (s *Service) DownloadBytes(ctx context.Context, fileID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := s.DownloadFile(fileID, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
