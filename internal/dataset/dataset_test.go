package dataset

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"getaround-insights/internal/model"
)

const pricingCSV = `,model_key,mileage,engine_power,fuel,paint_color,car_type,private_parking_available,has_gps,has_air_conditioning,automatic_car,has_getaround_connect,has_speed_regulator,winter_tires,rental_price_per_day
0,Citroën,140411,100,diesel,black,convertible,True,True,False,False,True,True,True,106
1,Peugeot,13929,317,petrol,grey,convertible,True,True,False,False,False,True,True,264
`

func TestDecodeCars(t *testing.T) {
	cars, err := DecodeCars(strings.NewReader(pricingCSV))
	require.NoError(t, err)
	require.Len(t, cars, 2)

	assert.Equal(t, model.Car{
		ModelKey:                "Citroën",
		Mileage:                 140411,
		EnginePower:             100,
		Fuel:                    "diesel",
		PaintColor:              "black",
		CarType:                 "convertible",
		PrivateParkingAvailable: true,
		HasGPS:                  true,
		HasGetaroundConnect:     true,
		HasSpeedRegulator:       true,
		WinterTires:             true,
	}, cars[0])
	assert.Equal(t, 317.0, cars[1].EnginePower)
}

func TestDecodeCarsMissingColumn(t *testing.T) {
	_, err := DecodeCars(strings.NewReader("model_key,mileage\nCitroën,10\n"))
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), "engine_power")
}

func TestDecodeCarsBadCell(t *testing.T) {
	bad := strings.Replace(pricingCSV, "140411", "lots", 1)
	_, err := DecodeCars(strings.NewReader(bad))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestDecodeCarsRejectsInfinity(t *testing.T) {
	bad := strings.Replace(pricingCSV, "13929", "inf", 1)
	_, err := DecodeCars(strings.NewReader(bad))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")
}

func TestDecodeCarsEmpty(t *testing.T) {
	_, err := DecodeCars(strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestLoadPricing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.csv")
	require.NoError(t, os.WriteFile(path, []byte(pricingCSV), 0o644))

	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	cars, err := LoadPricing(path)
	require.NoError(t, err)
	assert.Len(t, cars, 2)
	assert.Equal(t, 1, strings.Count(buf.String(), "pricing table loaded"))
	assert.Contains(t, buf.String(), `"rows":2`)
}

const delayCSV = `rental_id,car_id,checkin_type,state,delay_at_checkout_in_minutes,previous_ended_rental_id,time_delta_with_previous_rental_in_minutes
505000,363965,mobile,canceled,,,
507750,269550,mobile,ended,-81,,
511626,398802,connect,ended,45,510000,10
`

func TestLoadRentalsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "delay.csv")
	require.NoError(t, os.WriteFile(path, []byte(delayCSV), 0o644))

	rentals, err := LoadRentals(path)
	require.NoError(t, err)
	require.Len(t, rentals, 3)

	assert.Nil(t, rentals[0].DelayAtCheckout)
	assert.Nil(t, rentals[0].TimeDeltaWithPrevious)
	assert.Equal(t, "canceled", rentals[0].State)

	assert.Equal(t, -81.0, *rentals[1].DelayAtCheckout)

	assert.Equal(t, model.CheckinConnect, rentals[2].CheckinType)
	assert.Equal(t, int64(510000), *rentals[2].PreviousEndedRentalID)
	assert.Equal(t, 10.0, *rentals[2].TimeDeltaWithPrevious)
}

func TestLoadRentalsXLSX(t *testing.T) {
	f := excelize.NewFile()
	header := make([]any, len(model.RentalColumns))
	for i, c := range model.RentalColumns {
		header[i] = c
	}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{505000, 363965, "mobile", "canceled", "", "", ""}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{511626, 398802, "connect", "ended", 45, 510000, 10}))

	path := filepath.Join(t.TempDir(), "delay.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	rentals, err := LoadRentals(path)
	require.NoError(t, err)
	require.Len(t, rentals, 2)

	assert.Equal(t, int64(363965), rentals[0].CarID)
	assert.Nil(t, rentals[0].DelayAtCheckout)
	assert.Equal(t, 45.0, *rentals[1].DelayAtCheckout)
	assert.Equal(t, 10.0, *rentals[1].TimeDeltaWithPrevious)
}

func TestLoadRentalsMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "delay.csv")
	require.NoError(t, os.WriteFile(path, []byte("car_id,checkin_type\n1,mobile\n"), 0o644))

	_, err := LoadRentals(path)
	assert.True(t, errors.Is(err, ErrMissingColumn))
}
