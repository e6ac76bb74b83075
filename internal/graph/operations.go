package graph

import (
	"context"

	"github.com/ligaturedb/ligature/internal/storage"
	"github.com/ligaturedb/ligature/internal/xtypes"
)

// CreateSchema registers a JSON Schema for type_name (SchemaService.CreateSchema, spec §6).
func (s *Service) CreateSchema(ctx context.Context, typeName, schemaJSON, description string) (int64, error) {
	return withTx(ctx, s.Backend, func(tx storage.Tx) (int64, error) {
		return s.Registry.CreateSchema(ctx, tx, typeName, schemaJSON, description)
	})
}

// objectResult bundles an object with the zookie of the operation that
// produced or observed it, so generic helpers can return one value.
type objectResult struct {
	Object xtypes.Object
	Zookie string
}

// GetObject resolves the requested consistency to a snapshot and returns
// the object visible there (GraphService.GetObject, spec §6).
func (s *Service) GetObject(ctx context.Context, objectID int64, consistency xtypes.ConsistencyRequirement) (xtypes.Object, string, error) {
	res, err := withTx(ctx, s.Backend, func(tx storage.Tx) (objectResult, error) {
		snap, zookie, err := s.Resolver.Resolve(ctx, tx, consistency, deadlineFrom(ctx))
		if err != nil {
			return objectResult{}, err
		}
		obj, err := s.Objects.GetObject(ctx, tx, objectID, snap)
		if err != nil {
			return objectResult{}, err
		}
		return objectResult{Object: obj, Zookie: zookie}, nil
	})
	if err != nil {
		return xtypes.Object{}, "", err
	}
	return res.Object, res.Zookie, nil
}

// CreateObject validates metadata against type's schema and creates the
// object, attributing it to userID (GraphService.CreateObject, spec §6).
func (s *Service) CreateObject(ctx context.Context, userID, typeName, metadataJSON string) (xtypes.Object, string, error) {
	res, err := withTx(ctx, s.Backend, func(tx storage.Tx) (objectResult, error) {
		obj, zookie, err := s.Objects.CreateObject(ctx, tx, userID, typeName, metadataJSON)
		if err != nil {
			return objectResult{}, err
		}
		return objectResult{Object: obj, Zookie: zookie}, nil
	})
	if err != nil {
		return xtypes.Object{}, "", err
	}
	return res.Object, res.Zookie, nil
}

// UpdateObject installs a new metadata version for objectID
// (GraphService.UpdateObject, spec §6).
func (s *Service) UpdateObject(ctx context.Context, objectID int64, metadataJSON string) (xtypes.Object, string, error) {
	res, err := withTx(ctx, s.Backend, func(tx storage.Tx) (objectResult, error) {
		obj, zookie, err := s.Objects.UpdateObject(ctx, tx, objectID, metadataJSON)
		if err != nil {
			return objectResult{}, err
		}
		return objectResult{Object: obj, Zookie: zookie}, nil
	})
	if err != nil {
		return xtypes.Object{}, "", err
	}
	return res.Object, res.Zookie, nil
}

// DeleteObject tombstones objectID and cascades to its incident edges
// (spec §4.4, testable property 8). Not part of the GraphService table
// in §6 but required by the Object Store's operation set (§4.4).
func (s *Service) DeleteObject(ctx context.Context, objectID int64) (string, error) {
	return withTx(ctx, s.Backend, func(tx storage.Tx) (string, error) {
		return s.Objects.DeleteObject(ctx, tx, objectID, tx)
	})
}

// edgeResult bundles an edge with an optional target object and zookie.
type edgeResult struct {
	Edge   xtypes.Edge
	Target xtypes.Object
	Zookie string
}

// GetEdge returns the lowest-id live edge from objectID via edgeType and
// its target (GraphService.GetEdge, spec §6).
func (s *Service) GetEdge(ctx context.Context, objectID int64, edgeType string, consistency xtypes.ConsistencyRequirement) (xtypes.Edge, xtypes.Object, string, error) {
	res, err := withTx(ctx, s.Backend, func(tx storage.Tx) (edgeResult, error) {
		snap, zookie, err := s.Resolver.Resolve(ctx, tx, consistency, deadlineFrom(ctx))
		if err != nil {
			return edgeResult{}, err
		}
		edge, target, err := s.Edges.GetEdge(ctx, tx, objectID, edgeType, snap)
		if err != nil {
			return edgeResult{}, err
		}
		return edgeResult{Edge: edge, Target: target, Zookie: zookie}, nil
	})
	if err != nil {
		return xtypes.Edge{}, xtypes.Object{}, "", err
	}
	return res.Edge, res.Target, res.Zookie, nil
}

// edgesResult bundles every target reachable via GetEdges with the
// resolved zookie.
type edgesResult struct {
	Targets []xtypes.Object
	Zookie  string
}

// GetEdges returns every target reachable from objectID via edgeType
// (GraphService.GetEdges, spec §6).
func (s *Service) GetEdges(ctx context.Context, objectID int64, edgeType string, consistency xtypes.ConsistencyRequirement) ([]xtypes.Object, string, error) {
	res, err := withTx(ctx, s.Backend, func(tx storage.Tx) (edgesResult, error) {
		snap, zookie, err := s.Resolver.Resolve(ctx, tx, consistency, deadlineFrom(ctx))
		if err != nil {
			return edgesResult{}, err
		}
		targets, err := s.Edges.GetEdges(ctx, tx, objectID, edgeType, snap)
		if err != nil {
			return edgesResult{}, err
		}
		return edgesResult{Targets: targets, Zookie: zookie}, nil
	})
	if err != nil {
		return nil, "", err
	}
	return res.Targets, res.Zookie, nil
}

// CreateEdge inserts a new triple, rejecting TYPE_MISMATCH and CYCLE
// (GraphService.CreateEdge, spec §6).
func (s *Service) CreateEdge(ctx context.Context, userID string, fromID int64, fromType string, toID int64, toType, relation, metadataJSON string) (xtypes.Edge, string, error) {
	res, err := withTx(ctx, s.Backend, func(tx storage.Tx) (edgeResult, error) {
		edge, zookie, err := s.Edges.CreateEdge(ctx, tx, userID, fromType, fromID, relation, toType, toID, metadataJSON)
		if err != nil {
			return edgeResult{}, err
		}
		return edgeResult{Edge: edge, Zookie: zookie}, nil
	})
	if err != nil {
		return xtypes.Edge{}, "", err
	}
	return res.Edge, res.Zookie, nil
}

// UpdateEdge installs a new metadata version for edgeID, re-validating
// endpoint types (GraphService.UpdateEdge, spec §6).
func (s *Service) UpdateEdge(ctx context.Context, edgeID int64, metadataJSON string) (xtypes.Edge, string, error) {
	res, err := withTx(ctx, s.Backend, func(tx storage.Tx) (edgeResult, error) {
		edge, zookie, err := s.Edges.UpdateEdge(ctx, tx, edgeID, metadataJSON)
		if err != nil {
			return edgeResult{}, err
		}
		return edgeResult{Edge: edge, Zookie: zookie}, nil
	})
	if err != nil {
		return xtypes.Edge{}, "", err
	}
	return res.Edge, res.Zookie, nil
}

// DeleteEdge tombstones edgeID. Not part of the GraphService table in §6
// but required by the Edge Store's operation set (§4.5).
func (s *Service) DeleteEdge(ctx context.Context, edgeID int64) (string, error) {
	return withTx(ctx, s.Backend, func(tx storage.Tx) (string, error) {
		return s.Edges.DeleteEdge(ctx, tx, edgeID)
	})
}
