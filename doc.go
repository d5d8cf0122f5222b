// Package shareline provides the core of a personal file sharing service:
// ownership-scoped uploads with capability-token sharing and pluggable
// metadata backends.
//
// # Key Components
//
//   - Directory: reconciles verified external identity claims into local users
//   - FileService: upload, listing, download and deletion of owned files
//   - ShareEngine: issues, validates and revokes anonymous share tokens
//   - UserRepo / FileRepo: interfaces for metadata persistence (PostgreSQL, SQLite)
//   - FileStorage: interface for content storage (filesystem, extensible to S3/GCS)
//
// # Sharing model
//
// Every file is private to its owner. The owner may mint an unguessable share
// token granting anonymous read access to exactly that file, optionally bounded
// by an expiry timestamp. Expiry is enforced lazily at access time; expired
// tokens behave exactly like tokens that never existed. Ownership mismatches
// and missing files are likewise indistinguishable to callers, so object ids
// and tokens cannot be enumerated.
//
// # Example Usage
//
//	dir := shareline.NewDirectory(users)
//	shares := shareline.NewShareEngine(files, shareline.ShareEngineConfig{})
//	svc, err := shareline.NewFileService(files, storage, shares, shareline.FileServiceConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	owner, err := dir.Reconcile(ctx, claims)
//	uploaded, err := svc.Upload(ctx, owner.ID, "report.pdf", "application/pdf", content)
//	token, err := shares.CreateShareToken(ctx, uploaded.ID, owner.ID, 7)
//
// See the http package for the REST boundary and the database packages for
// metadata backend implementations.
package shareline
