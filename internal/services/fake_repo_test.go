package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"shapefile-service/internal/ingest"
	"shapefile-service/internal/models"
	"shapefile-service/internal/utils"
)

// fakeRepo is an in-memory stand-in for the shapefile repository.
type fakeRepo struct {
	geometries map[uint]json.RawMessage
	records    map[uint]*models.ShapefileRecord
	bboxes     map[uint]*utils.BBox
	merged     map[uint]map[string]interface{}

	replacedName     string
	replacedFeatures []ingest.Feature
	replaceErr       error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		geometries: make(map[uint]json.RawMessage),
		records:    make(map[uint]*models.ShapefileRecord),
		bboxes:     make(map[uint]*utils.BBox),
		merged:     make(map[uint]map[string]interface{}),
	}
}

func (f *fakeRepo) ReplaceDataset(name string, features []ingest.Feature) (int, error) {
	if f.replaceErr != nil {
		return 0, f.replaceErr
	}
	f.replacedName = name
	f.replacedFeatures = features
	return len(features), nil
}

func (f *fakeRepo) List(page, limit int) (*models.ShapefilePage, error) {
	return &models.ShapefilePage{}, nil
}

func (f *fakeRepo) GetByID(id uint) (*models.ShapefileRecord, error) {
	record, ok := f.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (f *fakeRepo) GetGeometry(id uint) (json.RawMessage, error) {
	geometry, ok := f.geometries[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return geometry, nil
}

func (f *fakeRepo) GetFeatureCollection(id uint) (json.RawMessage, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) GetBBox(id uint) (*utils.BBox, error) {
	bbox, ok := f.bboxes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return bbox, nil
}

func (f *fakeRepo) Update(id uint, patch models.UpdateShapefileRequest) (*models.ShapefileRecord, error) {
	return f.GetByID(id)
}

func (f *fakeRepo) MergeMetadata(id uint, fields map[string]interface{}) error {
	if _, ok := f.records[id]; !ok {
		if _, ok := f.geometries[id]; !ok {
			return gorm.ErrRecordNotFound
		}
	}
	if f.merged[id] == nil {
		f.merged[id] = make(map[string]interface{})
	}
	for k, v := range fields {
		f.merged[id][k] = v
	}
	return nil
}

func (f *fakeRepo) Delete(id uint) error {
	if _, ok := f.records[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.records, id)
	return nil
}
