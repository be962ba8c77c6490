// Package metadatatest provides a small music catalog registry shared by tests.
package metadatatest

import "httpquery/internal/metadata"

// CatalogYAML describes Artist, Album and Cover. All three inherit the id
// primary key and updatedAt from Record.
const CatalogYAML = `
entities:
  - name: Record
    primary_key: {field: id, type: bigint, generated: true}
    fields:
      - {name: id, type: bigint}
      - {name: updatedAt, type: timestamp, nullable: true}
  - name: Artist
    table: artist
    extends: Record
    fields:
      - {name: name, type: string}
      - {name: createdAt, type: timestamp}
  - name: Album
    table: album
    extends: Record
    fields:
      - {name: name, type: string}
      - {name: year, type: int}
      - {name: length, type: int}
      - {name: available, type: boolean}
      - {name: releasedOn, type: date, nullable: true}
  - name: Cover
    table: cover
    extends: Record
    fields:
      - {name: url, type: string}
relations:
  - {name: artist, type: many_to_one, source: Album, target: Artist, inverse: albums}
  - {name: cover, type: one_to_one, source: Album, target: Cover, inverse: album}
`

// Catalog returns a registry loaded with CatalogYAML.
func Catalog() *metadata.Registry {
	reg := metadata.NewRegistry()
	if err := metadata.LoadYAML([]byte(CatalogYAML), reg); err != nil {
		panic(err)
	}
	return reg
}
