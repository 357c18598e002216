package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"strings"

	"github.com/jackc/pgx/v5"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Executable UDF for ClickHouse: reads "source\tafterPartID" from stdin and prints an s3
// glob over the parquet parts exported from source, for use with the s3() table function.
func main() {
	logout, err := os.Create("/tmp/out.log")
	if err != nil {
		log.Fatal("Error opening log out", err)
	}

	defer func() {
		if err := recover(); err != nil {
			log.Println("panic occurred:", err)
			log.Println(string(debug.Stack()))
		}
	}()

	log.SetOutput(logout)

	reader := bufio.NewReader(os.Stdin)
	str, err := reader.ReadString('\n')
	if err != nil {
		log.Fatal("error reading stdin:", err)
	}
	log.Println("got str:", str)
	args := strings.Split(strings.TrimRight(str, "\n"), "\t")
	source, after := args[0], ""
	if len(args) > 1 {
		after = args[1]
	}

	conn, err := pgx.Connect(context.Background(), getenv("CRDB_DSN", "postgresql://root@crdb:26257/defaultdb"))
	if err != nil {
		log.Fatal("Unable to connect to database: ", err)
	}
	defer conn.Close(context.Background())

	rows, err := conn.Query(context.Background(), `
	select key
	from parts
	where alive = true
	AND source = $1
	AND id > $2
	order by id
	`, source, after)
	if err != nil {
		log.Fatal("err querying", err)
	}

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			log.Fatal("error scanning rows:", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		log.Fatal("error reading rows:", err)
	}
	log.Println("got", len(keys), "parts for", source)

	out := fmt.Sprintf("%s/{%s}", getenv("EXPORT_URL_BASE", "http://minio:9000/testbucket/exports"), strings.Join(keys, ","))
	log.Println("writing out:", out)
	fmt.Print(out)
}
