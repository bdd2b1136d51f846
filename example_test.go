package silt_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/silt"
	"github.com/aretw0/silt/pkg/schema"
)

type User struct {
	Name string `json:"name" validate:"required"`
	Age  int    `json:"age" validate:"gte=0"`
}

// Example_basic demonstrates connecting, inserting a validated document
// and reading it back.
func Example_basic() {
	ctx := context.Background()

	// The memory adapter keeps everything in process; swap in
	// "mongodb://..." with the default adapter for a real deployment.
	mgr, err := silt.Connect(ctx, "", silt.WithAdapter("memory"))
	if err != nil {
		log.Fatal(err)
	}
	defer mgr.Teardown(ctx)

	users := silt.NewRepository[User](mgr, "users",
		silt.WithValidator[User](schema.NewStruct[User]()),
	)

	// 1. Insert a document. It is validated, given an identifier and
	// timestamped before it is written.
	doc, _, err := users.InsertOne(ctx, User{Name: "John", Age: 30})
	if err != nil {
		log.Fatal(err)
	}

	// 2. Read it back by identifier.
	found, err := users.FindOne(ctx, silt.Filter{"_id": doc.ID()})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Found user: %s, age %d\n", found.Data.Name, found.Data.Age)
	// Output:
	// Found user: John, age 30
}
