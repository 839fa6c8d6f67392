// Command generator seeds a handful of stores, products, store mappings
// and staff into a freshly-migrated database, for local development and
// manual exercising of the plan endpoints.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	dbHost := os.Getenv("BLUEPRINT_DB_HOST")
	dbPort := os.Getenv("BLUEPRINT_DB_PORT")
	dbUser := os.Getenv("BLUEPRINT_DB_USERNAME")
	dbPass := os.Getenv("BLUEPRINT_DB_PASSWORD")
	dbName := os.Getenv("BLUEPRINT_DB_DATABASE")

	if dbHost == "" || dbPort == "" || dbUser == "" || dbPass == "" || dbName == "" {
		log.Fatal("Missing database environment variables")
	}

	connString := fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable",
		dbUser, dbPass, dbHost, dbPort, dbName)

	db, err := sql.Open("postgres", connString)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	log.Println("Connected to database successfully")

	storeIDs := generateStores(db, 6)
	log.Printf("Created %d test stores", len(storeIDs))

	productIDs := generateProducts(db, 15)
	log.Printf("Created %d test products", len(productIDs))

	generateMappings(db, productIDs, storeIDs)
	log.Println("Created product/store mappings")

	generateDistanceMatrix(db, storeIDs)
	log.Println("Seeded distance matrix")

	staffIDs := generateStaff(db, 4)
	log.Printf("Created %d test staff", len(staffIDs))

	generateBusinessRule(db, storeIDs[0])
	log.Println("Seeded default business rule")

	log.Println("Test data generation completed successfully!")
}

var districts = []struct {
	name string
	lat  float64
	lng  float64
}{
	{"Shibuya", 35.6595, 139.7005},
	{"Shinjuku", 35.6938, 139.7036},
	{"Ikebukuro", 35.7295, 139.7109},
	{"Ueno", 35.7141, 139.7774},
	{"Ginza", 35.6717, 139.7650},
	{"Akihabara", 35.6984, 139.7731},
}

func generateStores(db *sql.DB, count int) []int64 {
	var ids []int64
	for i := 0; i < count; i++ {
		d := districts[i%len(districts)]
		lat := d.lat + (rand.Float64()-0.5)*0.01
		lng := d.lng + (rand.Float64()-0.5)*0.01

		openingHours := `{"monday":{"open":"09:00","close":"20:00"},"tuesday":{"open":"09:00","close":"20:00"},` +
			`"wednesday":{"open":"09:00","close":"20:00"},"thursday":{"open":"09:00","close":"20:00"},` +
			`"friday":{"open":"09:00","close":"20:00"},"saturday":{"open":"10:00","close":"19:00"},` +
			`"sunday":{"open":"10:00","close":"18:00"}}`

		var id int64
		err := db.QueryRow(`
			INSERT INTO stores (name, address, district, latitude, longitude, priority_level, opening_hours, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, true)
			RETURNING id
		`, fmt.Sprintf("%s Store", d.name), fmt.Sprintf("1-%d %s, Tokyo", i+1, d.name), d.name, lat, lng, 1+i%5, openingHours).Scan(&id)
		if err != nil {
			log.Printf("Failed to create store: %v", err)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func generateProducts(db *sql.DB, count int) []int64 {
	var ids []int64
	for i := 0; i < count; i++ {
		var id int64
		err := db.QueryRow(`
			INSERT INTO products (sku, name, category, active)
			VALUES ($1, $2, 'general', true)
			RETURNING id
		`, fmt.Sprintf("SKU-%04d", i+1), fmt.Sprintf("Test Product %d", i+1)).Scan(&id)
		if err != nil {
			log.Printf("Failed to create product: %v", err)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func generateMappings(db *sql.DB, productIDs, storeIDs []int64) {
	for _, productID := range productIDs {
		mappedCount := 1 + rand.Intn(len(storeIDs))
		for i := 0; i < mappedCount; i++ {
			storeID := storeIDs[rand.Intn(len(storeIDs))]
			stockStatuses := []string{"in_stock", "in_stock", "low_stock", "out_of_stock"}
			_, err := db.Exec(`
				INSERT INTO product_store_mappings (product_id, store_id, is_primary_store, priority, stock_status, max_daily_quantity, active)
				VALUES ($1, $2, $3, $4, $5, $6, true)
				ON CONFLICT (product_id, store_id) DO NOTHING
			`, productID, storeID, i == 0, 1+rand.Intn(5), stockStatuses[rand.Intn(len(stockStatuses))], 10+rand.Intn(90))
			if err != nil {
				log.Printf("Failed to create mapping: %v", err)
			}
		}
	}
}

func generateDistanceMatrix(db *sql.DB, storeIDs []int64) {
	coords := make(map[int64][2]float64)
	rows, err := db.Query(`SELECT id, latitude, longitude FROM stores WHERE id = ANY($1)`, pq.Array(storeIDs))
	if err != nil {
		log.Printf("Failed to read store coordinates: %v", err)
		return
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var lat, lng float64
		if err := rows.Scan(&id, &lat, &lng); err != nil {
			continue
		}
		coords[id] = [2]float64{lat, lng}
	}

	for _, a := range storeIDs {
		for _, b := range storeIDs {
			if a == b {
				continue
			}
			ca, okA := coords[a]
			cb, okB := coords[b]
			if !okA || !okB {
				continue
			}
			km := haversineKm(ca[0], ca[1], cb[0], cb[1])
			minutes := km / 25.0 * 60
			_, err := db.Exec(`
				INSERT INTO store_distance_matrix (origin_store_id, destination_store_id, distance_km, travel_time_minutes, last_calculated)
				VALUES ($1, $2, $3, $4, NOW())
				ON CONFLICT (origin_store_id, destination_store_id)
				DO UPDATE SET distance_km = EXCLUDED.distance_km, travel_time_minutes = EXCLUDED.travel_time_minutes, last_calculated = NOW()
			`, a, b, km, minutes)
			if err != nil {
				log.Printf("Failed to seed distance pair (%d,%d): %v", a, b, err)
			}
		}
	}
}

func generateStaff(db *sql.DB, count int) []int64 {
	var ids []int64
	roles := []string{"buyer", "buyer", "buyer", "supervisor"}
	for i := 0; i < count; i++ {
		hash, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("Failed to hash password: %v", err)
			continue
		}
		d := districts[i%len(districts)]
		var id int64
		err = db.QueryRow(`
			INSERT INTO staff (name, email, password_hash, role, status, start_latitude, start_longitude, max_daily_capacity)
			VALUES ($1, $2, $3, $4, 'idle', $5, $6, $7)
			RETURNING id
		`, fmt.Sprintf("Buyer %d", i+1), fmt.Sprintf("buyer%d@example.test", i+1), string(hash), roles[i%len(roles)], d.lat, d.lng, 20+rand.Intn(10)).Scan(&id)
		if err != nil {
			log.Printf("Failed to create staff: %v", err)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func generateBusinessRule(db *sql.DB, defaultStoreID int64) {
	_, err := db.Exec(`
		INSERT INTO business_rules (
			cutoff_time, weekend_processing, holiday_override, default_start_location,
			max_orders_per_staff, auto_assign, optimization_priority, max_route_time_hours, include_return
		) VALUES ('14:00', false, false, $1, 25, true, 'distance', 8, false)
	`, defaultStoreID)
	if err != nil {
		log.Printf("Failed to seed business rule: %v", err)
	}
}

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const r = 6371.0
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return r * c
}
