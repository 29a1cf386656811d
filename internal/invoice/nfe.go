// Package invoice lee notas fiscales electrónicas (NF-e) de proveedores.
package invoice

import (
	"bytes"
	"encoding/xml"
	"strings"

	"produccion-service/internal/apperrors"
)

// Campos obligatorios del documento
const (
	CampoProveedor = "proveedor"
	CampoProducto  = "producto"
	CampoUnidad    = "unidad"
	CampoPrecio    = "precio"
)

// Documento datos extraídos de la factura, todavía sin normalizar
type Documento struct {
	Proveedor string
	Producto  string
	Unidad    string
	Precio    string
}

type nfeProc struct {
	XMLName xml.Name `xml:"nfeProc"`
	NFe     struct {
		InfNFe struct {
			Emit struct {
				XNome string `xml:"xNome"`
			} `xml:"emit"`
			Det []struct {
				Prod struct {
					XProd  string `xml:"xProd"`
					UCom   string `xml:"uCom"`
					VUnCom string `xml:"vUnCom"`
				} `xml:"prod"`
			} `xml:"det"`
		} `xml:"infNFe"`
	} `xml:"NFe"`
}

// Parse extrae proveedor, producto, unidad y precio del primer ítem de la nota.
// Un campo ausente o vacío produce MissingFieldError.
func Parse(data []byte) (*Documento, error) {
	var proc nfeProc
	dec := xml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&proc); err != nil {
		return nil, &apperrors.ParseError{Value: "documento xml", Err: err}
	}

	inf := proc.NFe.InfNFe
	doc := &Documento{Proveedor: strings.TrimSpace(inf.Emit.XNome)}
	if len(inf.Det) > 0 {
		prod := inf.Det[0].Prod
		doc.Producto = strings.TrimSpace(prod.XProd)
		doc.Unidad = strings.TrimSpace(prod.UCom)
		doc.Precio = strings.TrimSpace(prod.VUnCom)
	}

	if err := doc.requireFields(); err != nil {
		return nil, err
	}
	return doc, nil
}

func (d *Documento) requireFields() error {
	campos := []struct {
		nombre string
		valor  string
	}{
		{CampoProveedor, d.Proveedor},
		{CampoProducto, d.Producto},
		{CampoUnidad, d.Unidad},
		{CampoPrecio, d.Precio},
	}

	for _, c := range campos {
		if c.valor == "" {
			return &apperrors.MissingFieldError{Field: c.nombre}
		}
	}
	return nil
}
